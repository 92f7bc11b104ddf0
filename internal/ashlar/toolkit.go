package ashlar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mosaicworks/stitchagent/internal/report"
)

const reportTitle = "ASHLAR Image Stitching and Registration"

// DefaultExecutable is the program resolved on PATH when no explicit
// binary is configured.
const DefaultExecutable = "ashlar"

// EnvExecutable overrides the ashlar binary without flags or config.
const EnvExecutable = "STITCHAGENT_ASHLAR_BIN"

// Toolkit runs the external ashlar binary. Construct with New; the
// zero value has no executable bound.
type Toolkit struct {
	exe     string
	invoker Invoker
	log     zerolog.Logger
}

// New returns a Toolkit for exe using the real subprocess invoker.
// An empty exe falls back to STITCHAGENT_ASHLAR_BIN, then to "ashlar"
// on PATH.
func New(exe string, log zerolog.Logger) *Toolkit {
	return &Toolkit{exe: ResolveExecutable(exe), invoker: ExecInvoker{}, log: log}
}

// ResolveExecutable applies the executable precedence: explicit value,
// then the environment override, then the PATH default.
func ResolveExecutable(exe string) string {
	if v := strings.TrimSpace(exe); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExecutable)); v != "" {
		return v
	}
	return DefaultExecutable
}

// StitchRun validates p, runs ashlar, and returns the structured
// outcome. Bad input, a failing tool, and a launch failure are all
// encoded in the returned run, never as a Go error.
func (t *Toolkit) StitchRun(ctx context.Context, p StitchParams) *report.Run {
	p = p.withDefaults()
	run := &report.Run{
		Title:      reportTitle,
		Date:       timeNow(),
		OutputSize: -1,
	}

	if len(p.InputFiles) == 0 {
		run.Status = report.StatusInputError
		run.Reason = "no input files provided"
		return run
	}
	if missing := missingInputs(p.InputFiles); len(missing) > 0 {
		run.Status = report.StatusInputError
		run.Reason = "input files not found: " + strings.Join(missing, ", ")
		return run
	}

	argv, outputFile := buildCommand(t.exe, p)
	run.Inputs = report.Inputs{
		FileCount:    len(p.InputFiles),
		OutputPath:   p.OutputPath,
		AlignChannel: p.AlignChannel,
		MaximumShift: p.MaximumShift,
		FilterSigma:  p.FilterSigma,
		TileSize:     p.TileSize,
		FFPCount:     len(p.FFPFiles),
		DFPCount:     len(p.DFPFiles),
		FlipX:        p.FlipX,
		FlipY:        p.FlipY,
	}
	run.Command = argv
	run.OutputPath = outputFile

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		run.Status = report.StatusLaunchError
		run.LaunchErr = fmt.Sprintf("create output directory: %v", err)
		return run
	}

	t.log.Debug().Strs("argv", argv).Msg("running ashlar")
	res, err := t.invoker.Invoke(ctx, argv)
	if err != nil {
		run.Status = report.StatusLaunchError
		run.LaunchErr = err.Error()
		t.log.Error().Err(err).Msg("ashlar could not be started")
		return run
	}

	run.ExitCode = res.ExitCode
	run.Stdout = res.Stdout
	run.Stderr = res.Stderr
	if res.Truncated {
		t.log.Warn().Msg("captured ashlar output hit the stream cap")
	}
	if res.ExitCode != 0 {
		run.Status = report.StatusToolError
		t.log.Warn().Int("exit", res.ExitCode).Dur("took", res.Duration).Msg("ashlar failed")
		return run
	}

	run.Status = report.StatusOK
	if fi, statErr := os.Stat(outputFile); statErr == nil {
		run.OutputSize = fi.Size()
	}
	t.log.Info().Str("output", outputFile).Dur("took", res.Duration).Msg("ashlar completed")
	return run
}

// StitchAndRegister runs StitchRun and renders the text log.
func (t *Toolkit) StitchAndRegister(ctx context.Context, p StitchParams) string {
	return t.StitchRun(ctx, p).Render()
}

// AlignRun registers one file per acquisition cycle against the first.
// Same mechanics as StitchRun with cycle-oriented defaults: a wider
// maximum shift and a registered_cycles output name.
func (t *Toolkit) AlignRun(ctx context.Context, p AlignParams) *report.Run {
	sp := StitchParams{
		InputFiles:   p.CycleFiles,
		OutputPath:   p.OutputPath,
		AlignChannel: p.AlignChannel,
		MaximumShift: p.MaximumShift,
		OutputDir:    p.OutputDir,
	}
	if sp.OutputPath == "" {
		sp.OutputPath = DefaultAlignOutput
	}
	if sp.MaximumShift == 0 {
		sp.MaximumShift = DefaultAlignShift
	}
	return t.StitchRun(ctx, sp)
}

// AlignCycles runs AlignRun and renders the text log.
func (t *Toolkit) AlignCycles(ctx context.Context, p AlignParams) string {
	return t.AlignRun(ctx, p).Render()
}

// DirRun expands the tile pattern inside the directory and stitches
// every match in sorted order.
func (t *Toolkit) DirRun(ctx context.Context, p DirParams) *report.Run {
	if p.FilePattern == "" {
		p.FilePattern = DefaultTilePattern
	}
	if p.OutputPath == "" {
		p.OutputPath = DefaultDirOutput
	}

	matches, err := filepath.Glob(filepath.Join(p.TileDirectory, p.FilePattern))
	if err != nil {
		return &report.Run{
			Title:      reportTitle,
			Date:       timeNow(),
			OutputSize: -1,
			Status:     report.StatusInputError,
			Reason:     fmt.Sprintf("invalid file pattern %q: %v", p.FilePattern, err),
		}
	}
	if len(matches) == 0 {
		return &report.Run{
			Title:      reportTitle,
			Date:       timeNow(),
			OutputSize: -1,
			Status:     report.StatusInputError,
			Reason:     fmt.Sprintf("no files matching pattern %q found in %s", p.FilePattern, p.TileDirectory),
		}
	}
	sort.Strings(matches)

	return t.StitchRun(ctx, StitchParams{
		InputFiles:   matches,
		OutputPath:   p.OutputPath,
		MaximumShift: p.MaximumShift,
		FilterSigma:  p.FilterSigma,
		OutputDir:    p.OutputDir,
	})
}

// StitchDirectory runs DirRun and renders the text log.
func (t *Toolkit) StitchDirectory(ctx context.Context, p DirParams) string {
	return t.DirRun(ctx, p).Render()
}
