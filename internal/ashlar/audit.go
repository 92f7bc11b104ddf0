package ashlar

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// auditRecord is one NDJSON line describing a completed invocation.
type auditRecord struct {
	TS          string   `json:"ts"`
	Tool        string   `json:"tool"`
	Argv        []string `json:"argv"`
	CWD         string   `json:"cwd"`
	ExitCode    int      `json:"exitCode"`
	DurationMS  int64    `json:"durationMs"`
	StdoutBytes int      `json:"stdoutBytes"`
	StderrBytes int      `json:"stderrBytes"`
}

// appendAuditLog records the invocation under
// <moduleRoot>/.stitchagent/audit/YYYYMMDD.log. Auditing is best
// effort: any failure here must not affect the run outcome.
func appendAuditLog(argv []string, res RunResult) {
	cwd, _ := os.Getwd()
	rec := auditRecord{
		TS:          timeNow().UTC().Format("2006-01-02T15:04:05.000Z"),
		Tool:        filepath.Base(argv[0]),
		Argv:        argv,
		CWD:         cwd,
		ExitCode:    res.ExitCode,
		DurationMS:  res.Duration.Milliseconds(),
		StdoutBytes: len(res.Stdout),
		StderrBytes: len(res.Stderr),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return
	}

	dir := filepath.Join(moduleRoot(), ".stitchagent", "audit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	name := timeNow().UTC().Format("20060102") + ".log"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	_, _ = f.Write(append(line, '\n'))
}

// moduleRoot walks up from the working directory to the nearest go.mod,
// falling back to the working directory itself.
func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
