package main

import (
	"io"
)

// cliMain is the testable entrypoint: argv without the program name,
// explicit writers, and the intended process exit code as the result.
// Exit 0 covers every completed run, including runs whose report says
// the tool failed; 2 is command-line misuse; 1 is a CLI-surface error
// such as an unreadable config or script.
func cliMain(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	if helpRequested(args[:1]) {
		printUsage(stdout)
		return 0
	}
	if versionRequested(args[:1]) {
		printVersion(stdout)
		return 0
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "stitch":
		return runStitch(rest, stdout, stderr)
	case "align":
		return runAlign(rest, stdout, stderr)
	case "stitch-dir":
		return runStitchDir(rest, stdout, stderr)
	case "batch":
		return runBatch(rest, stdout, stderr)
	case "manifest":
		return runManifest(stdout, stderr)
	default:
		safeFprintf(stderr, "error: unknown command %q\n\n", cmd)
		printUsage(stderr)
		return 2
	}
}
