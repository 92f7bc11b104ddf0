package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mosaicworks/stitchagent/tools/testutil"
)

type toolOutput struct {
	OK     bool   `json:"ok"`
	Report string `json:"report"`
}

func runTool(t *testing.T, bin string, env []string, input any) (toolOutput, string, int) {
	t.Helper()
	data, err := json.Marshal(input)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	cmd := exec.Command(bin)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()
	code := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		} else {
			code = 1
		}
	}
	var out toolOutput
	_ = json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out)
	return out, stderr.String(), code
}

func writeCycles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("cycle"), 0o644); err != nil {
			t.Fatalf("write cycle: %v", err)
		}
		paths = append(paths, p)
	}
	return paths
}

// Cycle registration defaults differ from plain stitching: shift 30 and
// a registered_cycles output name.
func TestAlignCycles_Defaults(t *testing.T) {
	bin := testutil.BuildTool(t, "align_cycles")
	fake := testutil.BuildFakeAshlar(t)
	dir := t.TempDir()
	cycles := writeCycles(t, dir, "cycle1.tif", "cycle2.tif")
	argvFile := filepath.Join(dir, "argv.txt")

	out, stderr, code := runTool(t, bin, []string{
		"STITCHAGENT_ASHLAR_BIN=" + fake,
		testutil.FakeArgvFileEnv + "=" + argvFile,
	}, map[string]any{
		"cycle_files": cycles,
		"output_dir":  dir,
	})
	if code != 0 || !out.OK {
		t.Fatalf("exit=%d ok=%v stderr=%q report:\n%s", code, out.OK, stderr, out.Report)
	}

	raw, err := os.ReadFile(argvFile)
	if err != nil {
		t.Fatalf("read argv file: %v", err)
	}
	argv := strings.Split(string(raw), "\n")
	joined := strings.Join(argv, " ")
	if !strings.Contains(joined, "-m 30") {
		t.Fatalf("default shift 30 missing: %s", joined)
	}
	if !strings.Contains(joined, filepath.Join(dir, "registered_cycles.ome.tif")) {
		t.Fatalf("default output name missing: %s", joined)
	}
	if argv[0] != cycles[0] || argv[1] != cycles[1] {
		t.Fatalf("cycles must come first: %v", argv)
	}
	if !strings.Contains(out.Report, "- Maximum shift: 30 microns") {
		t.Fatalf("report shift:\n%s", out.Report)
	}
}

func TestAlignCycles_ScalarCycleFile(t *testing.T) {
	bin := testutil.BuildTool(t, "align_cycles")
	fake := testutil.BuildFakeAshlar(t)
	dir := t.TempDir()
	cycles := writeCycles(t, dir, "only.tif")

	out, stderr, code := runTool(t, bin, []string{
		"STITCHAGENT_ASHLAR_BIN=" + fake,
	}, map[string]any{
		"cycle_files": cycles[0],
		"output_dir":  dir,
	})
	if code != 0 || !out.OK {
		t.Fatalf("exit=%d ok=%v stderr=%q", code, out.OK, stderr)
	}
	if !strings.Contains(out.Report, "- Number of input files: 1") {
		t.Fatalf("scalar cycle not normalized:\n%s", out.Report)
	}
}

func TestAlignCycles_MissingCycles(t *testing.T) {
	bin := testutil.BuildTool(t, "align_cycles")

	out, _, code := runTool(t, bin, nil, map[string]any{"cycle_files": []string{}})
	if code != 0 || out.OK {
		t.Fatalf("exit=%d ok=%v", code, out.OK)
	}
	if out.Report != "Error: no input files provided" {
		t.Fatalf("report: got %q", out.Report)
	}
}

func TestAlignCycles_MalformedInput(t *testing.T) {
	bin := testutil.BuildTool(t, "align_cycles")

	cmd := exec.Command(bin)
	cmd.Stdin = strings.NewReader("{")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	ee, ok := err.(*exec.ExitError)
	if !ok || ee.ExitCode() != 1 {
		t.Fatalf("malformed stdin must exit 1, err=%v", err)
	}
	if !strings.Contains(stderr.String(), "error") {
		t.Fatalf("stderr: got %q", stderr.String())
	}
}
