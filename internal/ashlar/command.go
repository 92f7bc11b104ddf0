package ashlar

import (
	"path/filepath"
	"strconv"
)

// buildCommand assembles the ashlar argv for p. Inputs come first and
// the flag order is fixed; changing it would change the rendered
// Command line in every report.
func buildCommand(exe string, p StitchParams) (argv []string, outputFile string) {
	argv = append(argv, exe)
	argv = append(argv, p.InputFiles...)

	outputFile = filepath.Join(p.OutputDir, p.OutputPath)
	argv = append(argv, "-o", outputFile)
	argv = append(argv, "-c", strconv.Itoa(p.AlignChannel))
	argv = append(argv, "-m", formatFloat(p.MaximumShift))
	if p.FilterSigma != nil {
		argv = append(argv, "--filter-sigma", formatFloat(*p.FilterSigma))
	}
	argv = append(argv, "--tile-size", strconv.Itoa(p.TileSize))
	if len(p.FFPFiles) > 0 {
		argv = append(argv, "--ffp")
		argv = append(argv, p.FFPFiles...)
	}
	if len(p.DFPFiles) > 0 {
		argv = append(argv, "--dfp")
		argv = append(argv, p.DFPFiles...)
	}
	if p.FlipX {
		argv = append(argv, "--flip-x")
	}
	if p.FlipY {
		argv = append(argv, "--flip-y")
	}
	return argv, outputFile
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
