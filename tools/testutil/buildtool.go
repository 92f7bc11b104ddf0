package testutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// BuildTool builds the named tool binary from tools/cmd/<name> into a
// test-scoped temporary directory and returns the absolute path of the
// produced executable.
func BuildTool(t *testing.T, name string) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("find repo root: %v", err)
	}

	binName := name
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	outPath := filepath.Join(t.TempDir(), binName)

	srcPath := filepath.Join(repoRoot, "tools", "cmd", name)
	if fi, statErr := os.Stat(srcPath); statErr != nil || !fi.IsDir() {
		t.Fatalf("tool sources not found for %q at %s", name, srcPath)
	}

	cmd := exec.Command("go", "build", "-o", outPath, srcPath)
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build %s failed: %v\n%s", name, err, string(output))
	}
	return outPath
}

func findRepoRoot() (string, error) {
	start, err := os.Getwd()
	if err != nil || start == "" {
		return "", errors.New("cannot determine working directory")
	}
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s upward", start)
		}
		dir = parent
	}
}
