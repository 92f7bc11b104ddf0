// Package report models the outcome of one external stitching run and
// renders it as the text log handed back to callers.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status classifies how a run ended.
type Status string

const (
	// StatusOK means the external tool ran and exited zero.
	StatusOK Status = "ok"
	// StatusInputError means validation rejected the request before any
	// process was spawned.
	StatusInputError Status = "input_error"
	// StatusToolError means the tool started but exited non-zero.
	StatusToolError Status = "tool_error"
	// StatusLaunchError means the process could not be started, or the
	// output directory could not be created.
	StatusLaunchError Status = "launch_error"
)

// Inputs is the parameter summary carried into the report. Counts are
// used instead of the raw lists so the rendered document stays compact
// for large tile sets.
type Inputs struct {
	FileCount    int
	OutputPath   string
	AlignChannel int
	MaximumShift float64
	FilterSigma  *float64
	TileSize     int
	FFPCount     int
	DFPCount     int
	FlipX        bool
	FlipY        bool
}

// Run is the structured outcome of a single external-tool invocation.
// Render derives the text document from it; nothing in here is
// presentation-specific.
type Run struct {
	Title  string
	Date   time.Time
	Status Status

	// Reason carries the short message for StatusInputError runs.
	Reason string

	Inputs  Inputs
	Command []string

	ExitCode int
	Stdout   string
	Stderr   string

	// LaunchErr describes why the process never ran (StatusLaunchError).
	LaunchErr string

	// OutputPath is the resolved artifact path; OutputSize its size in
	// bytes, or -1 when the artifact was not found after the run.
	OutputPath string
	OutputSize int64
}

// OK reports whether the run completed successfully.
func (r *Run) OK() bool { return r.Status == StatusOK }

// SizeMiB returns the output artifact size in mebibytes.
func (r *Run) SizeMiB() float64 {
	if r.OutputSize < 0 {
		return 0
	}
	return float64(r.OutputSize) / (1024 * 1024)
}

// Render produces the multi-line run log. Input-validation failures
// render as a single "Error: ..." line; every other status renders the
// full document up to the point the run stopped.
func (r *Run) Render() string {
	if r.Status == StatusInputError {
		return "Error: " + r.Reason
	}

	var lines []string
	lines = append(lines, "# "+r.Title)
	lines = append(lines, "Date: "+r.Date.Format("2006-01-02 15:04:05")+"\n")
	lines = append(lines, "## Input Parameters")
	lines = append(lines, r.Inputs.bullets()...)
	lines = append(lines, "\n## Processing")
	lines = append(lines, "Command: "+strings.Join(r.Command, " ")+"\n")
	lines = append(lines, "Running ASHLAR stitching and registration...")

	switch r.Status {
	case StatusToolError:
		lines = append(lines, fmt.Sprintf("\n✗ Error: ASHLAR failed with exit code %d", r.ExitCode))
		lines = append(lines, "\nError message:\n"+r.Stderr)
	case StatusLaunchError:
		lines = append(lines, "\n✗ Error: "+r.LaunchErr)
	default:
		lines = append(lines, "✓ ASHLAR completed successfully\n")
		if r.Stdout != "" {
			lines = append(lines, "## ASHLAR Output", r.Stdout)
		}
		if r.OutputSize >= 0 {
			lines = append(lines, "\n## Results")
			lines = append(lines, "- Output file: "+r.OutputPath)
			lines = append(lines, fmt.Sprintf("- File size: %.2f MB", r.SizeMiB()))
		}
		lines = append(lines, "\n## Conclusion")
		lines = append(lines, "Image stitching and registration completed successfully.")
		lines = append(lines, "Registered image saved to: "+r.OutputPath)
	}
	return strings.Join(lines, "\n")
}

// bullets renders the input-parameter section in its fixed order.
// Optional parameters appear only when set, matching the flag order of
// the constructed command line.
func (in Inputs) bullets() []string {
	b := []string{
		fmt.Sprintf("- Number of input files: %d", in.FileCount),
		"- Output path: " + in.OutputPath,
		fmt.Sprintf("- Alignment channel: %d", in.AlignChannel),
		"- Maximum shift: " + formatFloat(in.MaximumShift) + " microns",
	}
	if in.FilterSigma != nil {
		b = append(b, "- Gaussian filter sigma: "+formatFloat(*in.FilterSigma)+" pixels")
	}
	b = append(b, fmt.Sprintf("- Tile size: %d pixels", in.TileSize))
	if in.FFPCount > 0 {
		b = append(b, fmt.Sprintf("- Flat field profiles: %d file(s)", in.FFPCount))
	}
	if in.DFPCount > 0 {
		b = append(b, fmt.Sprintf("- Dark field profiles: %d file(s)", in.DFPCount))
	}
	if in.FlipX {
		b = append(b, "- Flip X: enabled")
	}
	if in.FlipY {
		b = append(b, "- Flip Y: enabled")
	}
	return b
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
