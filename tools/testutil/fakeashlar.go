package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Environment variables understood by the fake ashlar binary. Tests set
// them on the process (or command) that ultimately spawns the fake.
const (
	// FakeExitEnv sets the exit code (default 0).
	FakeExitEnv = "FAKE_ASHLAR_EXIT"
	// FakeStdoutEnv is written verbatim to stdout.
	FakeStdoutEnv = "FAKE_ASHLAR_STDOUT"
	// FakeStderrEnv is written verbatim to stderr.
	FakeStderrEnv = "FAKE_ASHLAR_STDERR"
	// FakeWriteOutputEnv, when "1", creates the file named by the -o
	// argument, sized by FakeOutputBytesEnv.
	FakeWriteOutputEnv = "FAKE_ASHLAR_WRITE_OUTPUT"
	// FakeOutputBytesEnv sets the created file size in bytes.
	FakeOutputBytesEnv = "FAKE_ASHLAR_OUTPUT_BYTES"
	// FakeArgvFileEnv names a file that receives the received argv, one
	// argument per line, so tests can assert the exact command.
	FakeArgvFileEnv = "FAKE_ASHLAR_ARGV_FILE"
)

const fakeAshlarSource = `package main

import (
	"os"
	"strconv"
	"strings"
)

func main() {
	args := os.Args[1:]
	if p := os.Getenv("FAKE_ASHLAR_ARGV_FILE"); p != "" {
		_ = os.WriteFile(p, []byte(strings.Join(args, "\n")), 0o644)
	}
	if os.Getenv("FAKE_ASHLAR_WRITE_OUTPUT") == "1" {
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				n, _ := strconv.Atoi(os.Getenv("FAKE_ASHLAR_OUTPUT_BYTES"))
				if n <= 0 {
					n = 1
				}
				_ = os.WriteFile(args[i+1], make([]byte, n), 0o644)
			}
		}
	}
	if s := os.Getenv("FAKE_ASHLAR_STDOUT"); s != "" {
		_, _ = os.Stdout.WriteString(s)
	}
	if s := os.Getenv("FAKE_ASHLAR_STDERR"); s != "" {
		_, _ = os.Stderr.WriteString(s)
	}
	if c := os.Getenv("FAKE_ASHLAR_EXIT"); c != "" {
		n, _ := strconv.Atoi(c)
		os.Exit(n)
	}
}
`

// BuildFakeAshlar compiles a stand-in ashlar binary whose behavior is
// driven entirely by FAKE_ASHLAR_* environment variables at run time,
// and returns its absolute path.
func BuildFakeAshlar(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	src := filepath.Join(dir, "main.go")
	if err := os.WriteFile(src, []byte(fakeAshlarSource), 0o644); err != nil {
		t.Fatalf("write fake ashlar source: %v", err)
	}
	bin := filepath.Join(dir, "ashlar")
	cmd := exec.Command("go", "build", "-o", bin, src)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build fake ashlar: %v\n%s", err, output)
	}
	return bin
}
