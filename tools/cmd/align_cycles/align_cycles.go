package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mosaicworks/stitchagent/internal/ashlar"
)

type runOutput struct {
	OK     bool   `json:"ok"`
	Report string `json:"report"`
}

func main() {
	in, err := readInput(os.Stdin)
	if err != nil {
		stderrJSON(err)
		os.Exit(1)
	}
	tk := ashlar.New("", zerolog.Nop())
	run := tk.AlignRun(context.Background(), in)
	out := runOutput{OK: run.OK(), Report: run.Render()}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		stderrJSON(fmt.Errorf("encode json: %w", err))
		os.Exit(1)
	}
}

func readInput(r io.Reader) (ashlar.AlignParams, error) {
	var in ashlar.AlignParams
	b, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return in, fmt.Errorf("read stdin: %w", err)
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return in, fmt.Errorf("parse json: %w", err)
	}
	return in, nil
}

func stderrJSON(err error) {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	fmt.Fprintf(os.Stderr, "{\"error\":%q}\n", msg)
}
