// Package ashlar validates stitching requests, builds the external
// command line, and runs the ashlar binary as a subprocess. Expected
// failures never surface as Go errors; every request produces a
// report.Run describing how it ended.
package ashlar

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Defaults applied when the caller leaves fields unset. Zero is never a
// meaningful value for these fields, so zero means "use the default".
const (
	DefaultStitchOutput = "ashlar_output.ome.tif"
	DefaultAlignOutput  = "registered_cycles.ome.tif"
	DefaultDirOutput    = "stitched.ome.tif"
	DefaultTilePattern  = "*.tif"
	DefaultMaximumShift = 15
	DefaultAlignShift   = 30
	DefaultTileSize     = 1024
	DefaultOutputDir    = "./"
)

// StringList decodes from either a single JSON string or an array of
// strings. Calibration profiles are commonly shared across cycles as
// one file, so the scalar form normalizes to a one-element list.
type StringList []string

// UnmarshalJSON implements the scalar-or-array acceptance.
func (s *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}
	if trimmed[0] == '"' {
		var one string
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*s = StringList(many)
	return nil
}

// MarshalJSON always emits the array form.
func (s StringList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(s))
}

// StitchParams describes one stitching and registration request.
type StitchParams struct {
	InputFiles   StringList `json:"input_files"`
	OutputPath   string     `json:"output_path,omitempty"`
	AlignChannel int        `json:"align_channel,omitempty"`
	MaximumShift float64    `json:"maximum_shift,omitempty"`
	// FilterSigma enables Gaussian pre-filtering when non-nil. An
	// explicit zero is forwarded to the tool; only nil omits the flag.
	FilterSigma *float64   `json:"filter_sigma,omitempty"`
	TileSize    int        `json:"tile_size,omitempty"`
	FFPFiles    StringList `json:"ffp_files,omitempty"`
	DFPFiles    StringList `json:"dfp_files,omitempty"`
	FlipX       bool       `json:"flip_x,omitempty"`
	FlipY       bool       `json:"flip_y,omitempty"`
	OutputDir   string     `json:"output_dir,omitempty"`
}

func (p StitchParams) withDefaults() StitchParams {
	if p.OutputPath == "" {
		p.OutputPath = DefaultStitchOutput
	}
	if p.MaximumShift == 0 {
		p.MaximumShift = DefaultMaximumShift
	}
	if p.TileSize == 0 {
		p.TileSize = DefaultTileSize
	}
	if p.OutputDir == "" {
		p.OutputDir = DefaultOutputDir
	}
	return p
}

// AlignParams describes a multi-cycle registration request. One file
// per acquisition cycle, aligned against the first.
type AlignParams struct {
	CycleFiles   StringList `json:"cycle_files"`
	OutputPath   string     `json:"output_path,omitempty"`
	AlignChannel int        `json:"align_channel,omitempty"`
	MaximumShift float64    `json:"maximum_shift,omitempty"`
	OutputDir    string     `json:"output_dir,omitempty"`
}

// DirParams describes stitching every tile in a directory that matches
// a glob pattern.
type DirParams struct {
	TileDirectory string   `json:"tile_directory"`
	OutputPath    string   `json:"output_path,omitempty"`
	FilePattern   string   `json:"file_pattern,omitempty"`
	MaximumShift  float64  `json:"maximum_shift,omitempty"`
	FilterSigma   *float64 `json:"filter_sigma,omitempty"`
	OutputDir     string   `json:"output_dir,omitempty"`
}
