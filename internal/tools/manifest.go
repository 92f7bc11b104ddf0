// Package tools describes the stitching tool executables shipped under
// tools/bin so agent harnesses can discover and launch them.
package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Descriptor describes one tool executable: its name, parameter schema,
// and the argv used to run it.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
	Command     []string        `json:"command"`
	TimeoutSec  int             `json:"timeoutSec,omitempty"`
	// EnvPassthrough lists environment variable names a harness may
	// forward into the tool process. Names are upper-cased, validated
	// against [A-Z_][A-Z0-9_]*, and de-duplicated preserving order.
	EnvPassthrough []string `json:"envPassthrough,omitempty"`
}

// Manifest is the on-disk tools.json layout.
type Manifest struct {
	Tools []Descriptor `json:"tools"`
}

// LoadManifest reads a tools.json file and returns a name-to-descriptor
// registry. Relative command paths must sit under the canonical
// ./tools/bin/ prefix and are resolved against the manifest's own
// directory, so the registry does not depend on the process working
// directory.
func LoadManifest(manifestPath string) (map[string]Descriptor, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	registry := make(map[string]Descriptor)
	nameSeen := make(map[string]struct{})
	manifestDir := filepath.Dir(manifestPath)
	for i, t := range man.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool[%d]: name is required", i)
		}
		if _, ok := nameSeen[t.Name]; ok {
			return nil, fmt.Errorf("tool[%d] %q: duplicate name", i, t.Name)
		}
		nameSeen[t.Name] = struct{}{}
		if len(t.Command) < 1 {
			return nil, fmt.Errorf("tool[%d] %q: command must have at least program name", i, t.Name)
		}
		if len(t.EnvPassthrough) > 0 {
			norm, err := normalizeEnvAllowlist(t.EnvPassthrough)
			if err != nil {
				return nil, fmt.Errorf("tool[%d] %q: %v", i, t.Name, err)
			}
			t.EnvPassthrough = norm
		}

		cmd0 := t.Command[0]
		if !filepath.IsAbs(cmd0) {
			raw := strings.ReplaceAll(cmd0, "\\", "/")
			norm := filepath.ToSlash(path.Clean(raw))
			if strings.HasPrefix(norm, "tools/") || norm == "tools" {
				norm = "./" + norm
			}
			if strings.HasPrefix(norm, "../") || norm == ".." {
				return nil, fmt.Errorf("tool[%d] %q: command[0] must not escape tools/bin (got %q)", i, t.Name, cmd0)
			}
			if !strings.HasPrefix(norm, "./tools/bin/") {
				return nil, fmt.Errorf("tool[%d] %q: relative command[0] must start with ./tools/bin/", i, t.Name)
			}
			trimmed := strings.TrimPrefix(norm, "./")
			resolved := filepath.Join(manifestDir, filepath.FromSlash(trimmed))
			absResolved, errAbs := filepath.Abs(resolved)
			if errAbs != nil {
				return nil, fmt.Errorf("tool[%d] %q: resolve command[0]: %v", i, t.Name, errAbs)
			}
			t.Command[0] = absResolved
		}
		registry[t.Name] = t
	}
	return registry, nil
}

// normalizeEnvAllowlist upper-cases, validates, and de-duplicates
// environment variable names, preserving first-occurrence order.
func normalizeEnvAllowlist(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for idx, k := range keys {
		trimmed := strings.TrimSpace(k)
		if trimmed == "" {
			return nil, fmt.Errorf("envPassthrough[%d]: empty name", idx)
		}
		upper := strings.ToUpper(trimmed)
		if !isValidEnvName(upper) {
			return nil, fmt.Errorf("envPassthrough[%d]: invalid name %q (must match [A-Z_][A-Z0-9_]*)", idx, k)
		}
		if _, ok := seen[upper]; ok {
			continue
		}
		seen[upper] = struct{}{}
		out = append(out, upper)
	}
	return out, nil
}

func isValidEnvName(s string) bool {
	if len(s) == 0 {
		return false
	}
	c := s[0]
	if !((c >= 'A' && c <= 'Z') || c == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c = s[i]
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
