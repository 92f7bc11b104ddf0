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

// runTool feeds input JSON to the built binary and decodes stdout.
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

func writeTiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("tile"), 0o644); err != nil {
			t.Fatalf("write tile: %v", err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestStitchRegister_Success(t *testing.T) {
	bin := testutil.BuildTool(t, "stitch_register")
	fake := testutil.BuildFakeAshlar(t)
	dir := t.TempDir()
	tiles := writeTiles(t, dir, "c1.tif", "c2.tif")

	out, stderr, code := runTool(t, bin, []string{
		"STITCHAGENT_ASHLAR_BIN=" + fake,
		testutil.FakeStdoutEnv + "=merging tiles",
		testutil.FakeWriteOutputEnv + "=1",
		testutil.FakeOutputBytesEnv + "=1048576",
	}, map[string]any{
		"input_files": tiles,
		"output_dir":  dir,
	})
	if code != 0 {
		t.Fatalf("exit=%d stderr=%q", code, stderr)
	}
	if !out.OK {
		t.Fatalf("expected ok=true, report:\n%s", out.Report)
	}
	for _, want := range []string{
		"✓ ASHLAR completed successfully",
		"merging tiles",
		"- File size: 1.00 MB",
		"- Number of input files: 2",
	} {
		if !strings.Contains(out.Report, want) {
			t.Fatalf("report missing %q:\n%s", want, out.Report)
		}
	}
}

func TestStitchRegister_ArgvOrder(t *testing.T) {
	bin := testutil.BuildTool(t, "stitch_register")
	fake := testutil.BuildFakeAshlar(t)
	dir := t.TempDir()
	tiles := writeTiles(t, dir, "c1.tif", "c2.tif", "ffp.tif")
	argvFile := filepath.Join(dir, "argv.txt")

	out, stderr, code := runTool(t, bin, []string{
		"STITCHAGENT_ASHLAR_BIN=" + fake,
		testutil.FakeArgvFileEnv + "=" + argvFile,
	}, map[string]any{
		"input_files":   tiles[:2],
		"output_dir":    dir,
		"align_channel": 1,
		"maximum_shift": 25,
		"filter_sigma":  1.5,
		"ffp_files":     tiles[2],
		"flip_y":        true,
	})
	if code != 0 || !out.OK {
		t.Fatalf("exit=%d ok=%v stderr=%q", code, out.OK, stderr)
	}

	raw, err := os.ReadFile(argvFile)
	if err != nil {
		t.Fatalf("read argv file: %v", err)
	}
	got := strings.Split(string(raw), "\n")
	want := []string{
		tiles[0], tiles[1],
		"-o", filepath.Join(dir, "ashlar_output.ome.tif"),
		"-c", "1",
		"-m", "25",
		"--filter-sigma", "1.5",
		"--tile-size", "1024",
		"--ffp", tiles[2],
		"--flip-y",
	}
	if len(got) != len(want) {
		t.Fatalf("argv length: got %d want %d\n%v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("argv[%d]: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestStitchRegister_EmptyInputs(t *testing.T) {
	bin := testutil.BuildTool(t, "stitch_register")

	out, stderr, code := runTool(t, bin, nil, map[string]any{"input_files": []string{}})
	if code != 0 {
		t.Fatalf("validation failures must exit 0, got exit=%d stderr=%q", code, stderr)
	}
	if out.OK {
		t.Fatalf("expected ok=false")
	}
	if out.Report != "Error: no input files provided" {
		t.Fatalf("report: got %q", out.Report)
	}
}

func TestStitchRegister_MissingInputs(t *testing.T) {
	bin := testutil.BuildTool(t, "stitch_register")
	missing := filepath.Join(t.TempDir(), "nope.tif")

	out, _, code := runTool(t, bin, nil, map[string]any{"input_files": []string{missing}})
	if code != 0 || out.OK {
		t.Fatalf("exit=%d ok=%v", code, out.OK)
	}
	if !strings.Contains(out.Report, "Error: input files not found: "+missing) {
		t.Fatalf("report: got %q", out.Report)
	}
}

func TestStitchRegister_ToolFailure(t *testing.T) {
	bin := testutil.BuildTool(t, "stitch_register")
	fake := testutil.BuildFakeAshlar(t)
	dir := t.TempDir()
	tiles := writeTiles(t, dir, "c1.tif")

	out, stderr, code := runTool(t, bin, []string{
		"STITCHAGENT_ASHLAR_BIN=" + fake,
		testutil.FakeExitEnv + "=2",
		testutil.FakeStderrEnv + "=registration diverged",
	}, map[string]any{
		"input_files": tiles,
		"output_dir":  dir,
	})
	if code != 0 {
		t.Fatalf("tool failure must still exit 0, got exit=%d stderr=%q", code, stderr)
	}
	if out.OK {
		t.Fatalf("expected ok=false")
	}
	if !strings.Contains(out.Report, "✗ Error: ASHLAR failed with exit code 2") {
		t.Fatalf("report missing failure line:\n%s", out.Report)
	}
	if !strings.Contains(out.Report, "registration diverged") {
		t.Fatalf("report missing stderr:\n%s", out.Report)
	}
}

func TestStitchRegister_ScalarInputAccepted(t *testing.T) {
	bin := testutil.BuildTool(t, "stitch_register")
	fake := testutil.BuildFakeAshlar(t)
	dir := t.TempDir()
	tiles := writeTiles(t, dir, "single.tif")

	out, stderr, code := runTool(t, bin, []string{
		"STITCHAGENT_ASHLAR_BIN=" + fake,
	}, map[string]any{
		"input_files": tiles[0],
		"output_dir":  dir,
	})
	if code != 0 || !out.OK {
		t.Fatalf("exit=%d ok=%v stderr=%q report:\n%s", code, out.OK, stderr, out.Report)
	}
	if !strings.Contains(out.Report, "- Number of input files: 1") {
		t.Fatalf("scalar input not normalized:\n%s", out.Report)
	}
}

func TestStitchRegister_MalformedInput(t *testing.T) {
	bin := testutil.BuildTool(t, "stitch_register")

	cmd := exec.Command(bin)
	cmd.Stdin = strings.NewReader("not json")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	ee, ok := err.(*exec.ExitError)
	if !ok || ee.ExitCode() != 1 {
		t.Fatalf("malformed stdin must exit 1, err=%v", err)
	}
	var payload map[string]string
	if jsonErr := json.Unmarshal(bytes.TrimSpace(stderr.Bytes()), &payload); jsonErr != nil {
		t.Fatalf("stderr is not JSON: %q", stderr.String())
	}
	if !strings.Contains(payload["error"], "parse json") {
		t.Fatalf("stderr error: got %q", payload["error"])
	}
}
