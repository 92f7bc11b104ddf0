package ashlar

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestBuildCommandMinimal(t *testing.T) {
	p := StitchParams{InputFiles: StringList{"a.tif", "b.tif"}}.withDefaults()
	argv, outputFile := buildCommand("ashlar", p)

	wantOut := filepath.Join(DefaultOutputDir, DefaultStitchOutput)
	if outputFile != wantOut {
		t.Fatalf("output file: got %q, want %q", outputFile, wantOut)
	}
	want := []string{
		"ashlar", "a.tif", "b.tif",
		"-o", wantOut,
		"-c", "0",
		"-m", "15",
		"--tile-size", "1024",
	}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv mismatch:\n got %v\nwant %v", argv, want)
	}
}

func TestBuildCommandFullOrder(t *testing.T) {
	sigma := 1.5
	p := StitchParams{
		InputFiles:   StringList{"c1.tif", "c2.tif"},
		OutputPath:   "merged.ome.tif",
		AlignChannel: 2,
		MaximumShift: 25,
		FilterSigma:  &sigma,
		TileSize:     512,
		FFPFiles:     StringList{"ffp1.tif", "ffp2.tif"},
		DFPFiles:     StringList{"dfp.tif"},
		FlipX:        true,
		FlipY:        true,
		OutputDir:    "/data/run",
	}
	argv, outputFile := buildCommand("/opt/bin/ashlar", p)

	want := []string{
		"/opt/bin/ashlar", "c1.tif", "c2.tif",
		"-o", filepath.Join("/data/run", "merged.ome.tif"),
		"-c", "2",
		"-m", "25",
		"--filter-sigma", "1.5",
		"--tile-size", "512",
		"--ffp", "ffp1.tif", "ffp2.tif",
		"--dfp", "dfp.tif",
		"--flip-x",
		"--flip-y",
	}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv mismatch:\n got %v\nwant %v", argv, want)
	}
	if outputFile != "/data/run/merged.ome.tif" {
		t.Fatalf("output file: got %q", outputFile)
	}
}

func TestBuildCommandZeroSigmaStillEmitted(t *testing.T) {
	sigma := 0.0
	p := StitchParams{InputFiles: StringList{"a.tif"}, FilterSigma: &sigma}.withDefaults()
	argv, _ := buildCommand("ashlar", p)

	for i, a := range argv {
		if a == "--filter-sigma" {
			if i+1 >= len(argv) || argv[i+1] != "0" {
				t.Fatalf("zero sigma must emit value 0, argv %v", argv)
			}
			return
		}
	}
	t.Fatalf("--filter-sigma missing for explicit zero, argv %v", argv)
}

func TestBuildCommandOmitsUnsetOptionals(t *testing.T) {
	p := StitchParams{InputFiles: StringList{"a.tif"}}.withDefaults()
	argv, _ := buildCommand("ashlar", p)

	for _, absent := range []string{"--filter-sigma", "--ffp", "--dfp", "--flip-x", "--flip-y"} {
		for _, a := range argv {
			if a == absent {
				t.Fatalf("%s must not appear when unset, argv %v", absent, argv)
			}
		}
	}
}
