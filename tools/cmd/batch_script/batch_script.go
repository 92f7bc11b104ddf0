package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mosaicworks/stitchagent/internal/ashlar"
	"github.com/mosaicworks/stitchagent/internal/tools/jsbatch"
)

func main() {
	raw, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		stderrJSON(fmt.Errorf("read stdin: %w", err))
		os.Exit(1)
	}

	tk := ashlar.New("", zerolog.Nop())
	outJSON, errJSON, runErr := jsbatch.Run(context.Background(), raw, tk)
	// On OUTPUT_LIMIT the truncated output is still worth printing.
	if len(outJSON) > 0 {
		_, _ = os.Stdout.Write(append(outJSON, '\n'))
	}
	if runErr != nil {
		if len(errJSON) > 0 {
			_, _ = os.Stderr.Write(append(errJSON, '\n'))
		}
		os.Exit(1)
	}
}

func stderrJSON(err error) {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	fmt.Fprintf(os.Stderr, "{\"error\":%q}\n", msg)
}
