package main

import (
	"io"
	"strings"
)

// helpRequested returns true if any canonical help token is present.
func helpRequested(args []string) bool {
	for _, a := range args {
		if a == "--help" || a == "-h" || a == "help" {
			return true
		}
	}
	return false
}

// versionRequested returns true if any canonical version token is present.
func versionRequested(args []string) bool {
	for _, a := range args {
		if a == "--version" || a == "-version" {
			return true
		}
	}
	return false
}

// printUsage writes a comprehensive usage guide to w.
func printUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString("stitchcli — run ASHLAR microscopy stitching and registration with a readable run report\n\n")
	b.WriteString("Usage:\n  stitchcli <command> [flags] [args]\n\n")
	b.WriteString("Commands:\n")
	b.WriteString("  stitch FILE...\n    Stitch and register a set of image tiles\n")
	b.WriteString("  align FILE...\n    Register multi-cycle acquisitions against the first cycle\n")
	b.WriteString("  stitch-dir DIR\n    Stitch every tile in a directory that matches a glob pattern\n")
	b.WriteString("  batch SCRIPT\n    Run a JavaScript batch program ('-' reads the script from STDIN)\n")
	b.WriteString("  manifest\n    Print the tools.json manifest for the shipped tool binaries\n\n")
	b.WriteString("Run flags (stitch, align, stitch-dir, batch):\n")
	b.WriteString("  -config string\n    Path to stitchagent.toml (env STITCHAGENT_CONFIG)\n")
	b.WriteString("  -ashlar-bin string\n    ASHLAR executable (env STITCHAGENT_ASHLAR_BIN; default \"ashlar\" on PATH)\n")
	b.WriteString("  -pdf string\n    Also write the run report as a PDF to this path\n")
	b.WriteString("  -notify\n    Send the completion message configured in [notify]\n")
	b.WriteString("  -debug\n    Enable debug logging\n\n")
	b.WriteString("Stitch flags:\n")
	b.WriteString("  -o string\n    Output image name (default ashlar_output.ome.tif)\n")
	b.WriteString("  -output-dir string\n    Directory for output files (default from config, else ./)\n")
	b.WriteString("  -c int\n    Channel index used for alignment (default 0)\n")
	b.WriteString("  -m float\n    Maximum corrective shift in microns (default 15)\n")
	b.WriteString("  -filter-sigma float\n    Gaussian filter sigma in pixels (omit to disable filtering)\n")
	b.WriteString("  -tile-size int\n    Pyramid tile size in pixels (default 1024)\n")
	b.WriteString("  -ffp FILE\n    Flat-field profile image (repeatable)\n")
	b.WriteString("  -dfp FILE\n    Dark-field profile image (repeatable)\n")
	b.WriteString("  -flip-x | -flip-y\n    Flip tile positions before alignment\n\n")
	b.WriteString("Align flags:\n")
	b.WriteString("  -o string\n    Output image name (default registered_cycles.ome.tif)\n")
	b.WriteString("  -c int\n    Channel index used for alignment (default 0)\n")
	b.WriteString("  -m float\n    Maximum corrective shift in microns (default 30)\n\n")
	b.WriteString("Stitch-dir flags:\n")
	b.WriteString("  -pattern string\n    Glob pattern for tiles (default *.tif)\n")
	b.WriteString("  -o string\n    Output image name (default stitched.ome.tif)\n\n")
	b.WriteString("Batch flags:\n")
	b.WriteString("  -wall-ms int\n    Wall-clock limit in milliseconds (0 = no limit)\n")
	b.WriteString("  -output-kb int\n    Cap on emitted output in KiB (default 64)\n\n")
	b.WriteString("  --version | -version\n    Print version and exit\n")
	b.WriteString("\nExamples:\n")
	b.WriteString("  # Stitch one acquisition with a custom channel and shift\n")
	b.WriteString("  stitchcli stitch -c 1 -m 20 cycle1.ome.tif\n\n")
	b.WriteString("  # Register three cycles and also produce a PDF report\n")
	b.WriteString("  stitchcli align -pdf report.pdf cycle1.ome.tif cycle2.ome.tif cycle3.ome.tif\n\n")
	b.WriteString("  # Stitch every .tif in a directory\n")
	b.WriteString("  stitchcli stitch-dir -pattern '*.tif' ./tiles\n\n")
	b.WriteString("  # Show help\n")
	b.WriteString("  stitchcli --help\n")
	safeFprintln(w, strings.TrimRight(b.String(), "\n"))
}
