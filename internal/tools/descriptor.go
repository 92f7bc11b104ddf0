package tools

import (
	"encoding/json"
	"fmt"
)

// Parameter schemas for the shipped tools. These mirror the JSON the
// binaries accept on stdin; list-valued fields also accept a single
// string.
const (
	stitchSchema = `{
  "type": "object",
  "properties": {
    "input_files": {"type": ["array", "string"], "items": {"type": "string"}, "description": "Microscopy image files to stitch; a single path is accepted"},
    "output_path": {"type": "string", "description": "Output image name (default ashlar_output.ome.tif)"},
    "align_channel": {"type": "integer", "description": "Channel index used for alignment (default 0)"},
    "maximum_shift": {"type": "number", "description": "Maximum allowed corrective shift in microns (default 15)"},
    "filter_sigma": {"type": "number", "description": "Gaussian filter sigma in pixels; omit to disable filtering"},
    "tile_size": {"type": "integer", "description": "Pyramid tile size in pixels (default 1024)"},
    "ffp_files": {"type": ["array", "string"], "items": {"type": "string"}, "description": "Flat-field profile images"},
    "dfp_files": {"type": ["array", "string"], "items": {"type": "string"}, "description": "Dark-field profile images"},
    "flip_x": {"type": "boolean", "description": "Flip tile positions left-to-right"},
    "flip_y": {"type": "boolean", "description": "Flip tile positions top-to-bottom"},
    "output_dir": {"type": "string", "description": "Directory for output files (default ./)"}
  },
  "required": ["input_files"]
}`

	alignSchema = `{
  "type": "object",
  "properties": {
    "cycle_files": {"type": ["array", "string"], "items": {"type": "string"}, "description": "One image file per acquisition cycle, aligned against the first"},
    "output_path": {"type": "string", "description": "Output image name (default registered_cycles.ome.tif)"},
    "align_channel": {"type": "integer", "description": "Channel index used for alignment (default 0)"},
    "maximum_shift": {"type": "number", "description": "Maximum allowed corrective shift in microns (default 30)"},
    "output_dir": {"type": "string", "description": "Directory for output files (default ./)"}
  },
  "required": ["cycle_files"]
}`

	dirSchema = `{
  "type": "object",
  "properties": {
    "tile_directory": {"type": "string", "description": "Directory containing tile images"},
    "output_path": {"type": "string", "description": "Output image name (default stitched.ome.tif)"},
    "file_pattern": {"type": "string", "description": "Glob pattern for tiles (default *.tif)"},
    "maximum_shift": {"type": "number", "description": "Maximum allowed corrective shift in microns (default 15)"},
    "filter_sigma": {"type": "number", "description": "Gaussian filter sigma in pixels; omit to disable filtering"},
    "output_dir": {"type": "string", "description": "Directory for output files (default ./)"}
  },
  "required": ["tile_directory"]
}`

	batchSchema = `{
  "type": "object",
  "properties": {
    "source": {"type": "string", "description": "JavaScript batch program; stitch, alignCycles, stitchDir and emit are bound"},
    "limits": {
      "type": "object",
      "properties": {
        "wall_ms": {"type": "integer", "description": "Wall-clock limit in milliseconds; 0 disables the limit"},
        "output_kb": {"type": "integer", "description": "Cap on emitted output in KiB (default 64)"}
      }
    }
  },
  "required": ["source"]
}`
)

// Builtin returns descriptors for the four shipped tools with commands
// under the canonical ./tools/bin/ prefix. The descriptors declare the
// executable override so harnesses know to forward it.
func Builtin() []Descriptor {
	passthrough := []string{"STITCHAGENT_ASHLAR_BIN"}
	return []Descriptor{
		{
			Name:           "stitch_register",
			Description:    "Stitch and register a set of microscopy image tiles with ASHLAR",
			Schema:         json.RawMessage(stitchSchema),
			Command:        []string{"./tools/bin/stitch_register"},
			EnvPassthrough: passthrough,
		},
		{
			Name:           "align_cycles",
			Description:    "Register multi-cycle acquisitions against the first cycle",
			Schema:         json.RawMessage(alignSchema),
			Command:        []string{"./tools/bin/align_cycles"},
			EnvPassthrough: passthrough,
		},
		{
			Name:           "stitch_dir",
			Description:    "Stitch every tile in a directory that matches a glob pattern",
			Schema:         json.RawMessage(dirSchema),
			Command:        []string{"./tools/bin/stitch_dir"},
			EnvPassthrough: passthrough,
		},
		{
			Name:           "batch_script",
			Description:    "Run a JavaScript batch program that drives the stitching tools",
			Schema:         json.RawMessage(batchSchema),
			Command:        []string{"./tools/bin/batch_script"},
			EnvPassthrough: passthrough,
		},
	}
}

// WriteManifest marshals descriptors into tools.json form.
func WriteManifest(descs []Descriptor) ([]byte, error) {
	out, err := json.MarshalIndent(Manifest{Tools: descs}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(out, '\n'), nil
}
