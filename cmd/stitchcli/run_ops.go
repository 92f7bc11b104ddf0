package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/mosaicworks/stitchagent/internal/ashlar"
	"github.com/mosaicworks/stitchagent/internal/config"
	"github.com/mosaicworks/stitchagent/internal/logging"
	"github.com/mosaicworks/stitchagent/internal/notify"
	"github.com/mosaicworks/stitchagent/internal/report"
	"github.com/mosaicworks/stitchagent/internal/tools"
	"github.com/mosaicworks/stitchagent/internal/tools/jsbatch"
)

// runFlags are shared by every run-producing subcommand.
type runFlags struct {
	configPath string
	ashlarBin  string
	pdfPath    string
	notify     bool
	debug      bool
}

func registerRunFlags(fs *flag.FlagSet, rf *runFlags) {
	fs.StringVar(&rf.configPath, "config", "", "Path to stitchagent.toml (env STITCHAGENT_CONFIG)")
	fs.StringVar(&rf.ashlarBin, "ashlar-bin", "", "ASHLAR executable (env STITCHAGENT_ASHLAR_BIN; default \"ashlar\" on PATH)")
	fs.StringVar(&rf.pdfPath, "pdf", "", "Also write the run report as a PDF to this path")
	fs.BoolVar(&rf.notify, "notify", false, "Send the completion message configured in [notify]")
	fs.BoolVar(&rf.debug, "debug", false, "Enable debug logging")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseArgs(fs *flag.FlagSet, args []string, stdout, stderr io.Writer) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return 0, false
		}
		safeFprintf(stderr, "error: %v\n", err)
		return 2, false
	}
	return 0, true
}

// loadConfig resolves the config path (flag, then environment) and
// loads it; with neither set, defaults apply.
func loadConfig(rf runFlags) (config.Config, error) {
	path := strings.TrimSpace(rf.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.EnvConfigPath))
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func configureLogging(rf runFlags, cfg config.Config) {
	logging.ConfigureRuntime()
	if rf.debug {
		logging.SetLevel("debug")
		return
	}
	logging.SetLevel(cfg.Log.Level)
}

// newToolkit applies the executable precedence flag > env > config.
func newToolkit(rf runFlags, cfg config.Config) *ashlar.Toolkit {
	exe := strings.TrimSpace(rf.ashlarBin)
	if exe == "" && strings.TrimSpace(os.Getenv(ashlar.EnvExecutable)) == "" {
		exe = cfg.Ashlar.Executable
	}
	return ashlar.New(exe, logging.Component("ashlar"))
}

// executeRun is the shared tail of every run subcommand: load config,
// run, print the report, then handle -pdf and -notify.
func executeRun(rf runFlags, stdout, stderr io.Writer, doRun func(*ashlar.Toolkit, config.Config) *report.Run) int {
	cfg, err := loadConfig(rf)
	if err != nil {
		safeFprintf(stderr, "error: %v\n", err)
		return 1
	}
	configureLogging(rf, cfg)

	run := doRun(newToolkit(rf, cfg), cfg)
	safeFprintln(stdout, run.Render())

	if rf.pdfPath != "" {
		if err := run.WritePDF(rf.pdfPath); err != nil {
			safeFprintf(stderr, "error: write pdf: %v\n", err)
			return 1
		}
	}
	if rf.notify {
		n, err := notify.FromConfig(cfg.Notify)
		switch {
		case err != nil:
			safeFprintf(stderr, "warning: notifier unavailable: %v\n", err)
		case n == nil:
			safeFprintln(stderr, "warning: -notify set but [notify] is not configured")
		default:
			if err := n.Notify(context.Background(), run); err != nil {
				safeFprintf(stderr, "warning: %v\n", err)
			}
		}
	}
	return 0
}

func runStitch(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("stitch")
	var rf runFlags
	registerRunFlags(fs, &rf)

	var p ashlar.StitchParams
	var sigma float64
	var sigmaSet bool
	var ffp, dfp stringSliceFlag
	fs.StringVar(&p.OutputPath, "o", "", "Output image name (default ashlar_output.ome.tif)")
	fs.StringVar(&p.OutputDir, "output-dir", "", "Directory for output files (default from config, else ./)")
	fs.IntVar(&p.AlignChannel, "c", 0, "Channel index used for alignment")
	fs.Float64Var(&p.MaximumShift, "m", 0, "Maximum corrective shift in microns (default 15)")
	fs.Var(&float64FlexFlag{dst: &sigma, set: &sigmaSet}, "filter-sigma", "Gaussian filter sigma in pixels (omit to disable filtering)")
	fs.IntVar(&p.TileSize, "tile-size", 0, "Pyramid tile size in pixels (default 1024)")
	fs.Var(&ffp, "ffp", "Flat-field profile image (repeatable)")
	fs.Var(&dfp, "dfp", "Dark-field profile image (repeatable)")
	fs.BoolVar(&p.FlipX, "flip-x", false, "Flip tile positions left-to-right")
	fs.BoolVar(&p.FlipY, "flip-y", false, "Flip tile positions top-to-bottom")

	if code, ok := parseArgs(fs, args, stdout, stderr); !ok {
		return code
	}
	if fs.NArg() == 0 {
		safeFprintln(stderr, "error: at least one input file is required")
		return 2
	}
	p.InputFiles = ashlar.StringList(fs.Args())
	if sigmaSet {
		p.FilterSigma = &sigma
	}
	p.FFPFiles = ashlar.StringList(ffp)
	p.DFPFiles = ashlar.StringList(dfp)

	return executeRun(rf, stdout, stderr, func(tk *ashlar.Toolkit, cfg config.Config) *report.Run {
		if p.OutputDir == "" {
			p.OutputDir = cfg.Ashlar.OutputDir
		}
		return tk.StitchRun(context.Background(), p)
	})
}

func runAlign(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("align")
	var rf runFlags
	registerRunFlags(fs, &rf)

	var p ashlar.AlignParams
	fs.StringVar(&p.OutputPath, "o", "", "Output image name (default registered_cycles.ome.tif)")
	fs.StringVar(&p.OutputDir, "output-dir", "", "Directory for output files (default from config, else ./)")
	fs.IntVar(&p.AlignChannel, "c", 0, "Channel index used for alignment")
	fs.Float64Var(&p.MaximumShift, "m", 0, "Maximum corrective shift in microns (default 30)")

	if code, ok := parseArgs(fs, args, stdout, stderr); !ok {
		return code
	}
	if fs.NArg() == 0 {
		safeFprintln(stderr, "error: at least one cycle file is required")
		return 2
	}
	p.CycleFiles = ashlar.StringList(fs.Args())

	return executeRun(rf, stdout, stderr, func(tk *ashlar.Toolkit, cfg config.Config) *report.Run {
		if p.OutputDir == "" {
			p.OutputDir = cfg.Ashlar.OutputDir
		}
		return tk.AlignRun(context.Background(), p)
	})
}

func runStitchDir(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("stitch-dir")
	var rf runFlags
	registerRunFlags(fs, &rf)

	var p ashlar.DirParams
	var sigma float64
	var sigmaSet bool
	fs.StringVar(&p.OutputPath, "o", "", "Output image name (default stitched.ome.tif)")
	fs.StringVar(&p.OutputDir, "output-dir", "", "Directory for output files (default from config, else ./)")
	fs.StringVar(&p.FilePattern, "pattern", "", "Glob pattern for tiles (default *.tif)")
	fs.Float64Var(&p.MaximumShift, "m", 0, "Maximum corrective shift in microns (default 15)")
	fs.Var(&float64FlexFlag{dst: &sigma, set: &sigmaSet}, "filter-sigma", "Gaussian filter sigma in pixels (omit to disable filtering)")

	if code, ok := parseArgs(fs, args, stdout, stderr); !ok {
		return code
	}
	if fs.NArg() != 1 {
		safeFprintln(stderr, "error: exactly one tile directory is required")
		return 2
	}
	p.TileDirectory = fs.Arg(0)
	if sigmaSet {
		p.FilterSigma = &sigma
	}

	return executeRun(rf, stdout, stderr, func(tk *ashlar.Toolkit, cfg config.Config) *report.Run {
		if p.OutputDir == "" {
			p.OutputDir = cfg.Ashlar.OutputDir
		}
		return tk.DirRun(context.Background(), p)
	})
}

func runBatch(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("batch")
	var rf runFlags
	registerRunFlags(fs, &rf)

	var wallMS, outputKB int
	fs.IntVar(&wallMS, "wall-ms", 0, "Wall-clock limit in milliseconds (0 = no limit)")
	fs.IntVar(&outputKB, "output-kb", 0, "Cap on emitted output in KiB (default 64)")

	if code, ok := parseArgs(fs, args, stdout, stderr); !ok {
		return code
	}
	if fs.NArg() != 1 {
		safeFprintln(stderr, "error: exactly one script path is required ('-' for stdin)")
		return 2
	}

	source, err := readScript(fs.Arg(0))
	if err != nil {
		safeFprintf(stderr, "error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(rf)
	if err != nil {
		safeFprintf(stderr, "error: %v\n", err)
		return 1
	}
	configureLogging(rf, cfg)

	in := jsbatch.Input{Source: source}
	in.Limits.WallMS = wallMS
	in.Limits.OutputKB = outputKB
	raw, err := json.Marshal(in)
	if err != nil {
		safeFprintf(stderr, "error: encode batch input: %v\n", err)
		return 1
	}

	outJSON, errJSON, runErr := jsbatch.Run(context.Background(), raw, newToolkit(rf, cfg))
	if len(outJSON) > 0 {
		var out jsbatch.Output
		if err := json.Unmarshal(outJSON, &out); err == nil && out.Output != "" {
			safeFprintln(stdout, out.Output)
		}
	}
	if runErr != nil {
		var e jsbatch.Error
		if err := json.Unmarshal(errJSON, &e); err == nil {
			safeFprintf(stderr, "error: %s: %s\n", e.Code, e.Message)
		} else {
			safeFprintf(stderr, "error: %v\n", runErr)
		}
		return 1
	}
	return 0
}

func readScript(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runManifest(stdout, stderr io.Writer) int {
	body, err := tools.WriteManifest(tools.Builtin())
	if err != nil {
		safeFprintf(stderr, "error: %v\n", err)
		return 1
	}
	safeFprintf(stdout, "%s", body)
	return 0
}
