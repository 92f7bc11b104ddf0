// Package jsbatch runs small JavaScript batch programs that drive the
// stitching operations. Scripts get four bindings: stitch, alignCycles,
// stitchDir, and emit. Each operation binding returns the rendered run
// report as a string so scripts can branch on the outcome.
package jsbatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/mosaicworks/stitchagent/internal/ashlar"
	"github.com/mosaicworks/stitchagent/internal/sandbox"
)

// Service is the slice of the stitching toolkit the engine drives.
type Service interface {
	StitchAndRegister(ctx context.Context, p ashlar.StitchParams) string
	AlignCycles(ctx context.Context, p ashlar.AlignParams) string
	StitchDirectory(ctx context.Context, p ashlar.DirParams) string
}

// Input models the stdin JSON for batch_script.
type Input struct {
	Source string `json:"source"`
	Limits struct {
		// WallMS caps the wall-clock run time. Zero or negative means
		// no limit; stitching jobs routinely run for hours.
		WallMS   int `json:"wall_ms"`
		OutputKB int `json:"output_kb"`
	} `json:"limits"`
}

// Output is the successful stdout JSON shape.
type Output struct {
	Output string `json:"output"`
}

// Error is the structured stderr JSON payload.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run executes the batch program described by raw against svc. It
// returns (stdoutJSON, stderrJSON, err). On OUTPUT_LIMIT the truncated
// output is returned alongside the stderr payload and a non-nil error.
func Run(ctx context.Context, raw []byte, svc Service) ([]byte, []byte, error) {
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, mustMarshalError("INVALID_INPUT", "invalid JSON: "+err.Error()), err
	}
	if in.Source == "" {
		return nil, mustMarshalError("INVALID_INPUT", "missing source"), errors.New("invalid input")
	}

	maxKB := in.Limits.OutputKB
	if maxKB <= 0 {
		maxKB = 64
	}
	outBuf := sandbox.NewBoundedBuffer(maxKB)

	wall := in.Limits.WallMS
	runCtx, cancel := sandbox.WithWallTimeout(ctx, wall)
	defer cancel()

	vm := goja.New()

	if err := vm.Set("emit", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			if _, err := outBuf.Write([]byte(call.Arguments[0].String())); err != nil {
				panic(sandbox.ErrOutputLimit)
			}
		}
		return goja.Undefined()
	}); err != nil {
		return nil, mustMarshalError("EVAL_ERROR", "failed to bind emit"), err
	}

	bindings := map[string]func(goja.Value) string{
		"stitch": func(arg goja.Value) string {
			var p ashlar.StitchParams
			decodeParams("stitch", arg, &p)
			return svc.StitchAndRegister(runCtx, p)
		},
		"alignCycles": func(arg goja.Value) string {
			var p ashlar.AlignParams
			decodeParams("alignCycles", arg, &p)
			return svc.AlignCycles(runCtx, p)
		},
		"stitchDir": func(arg goja.Value) string {
			var p ashlar.DirParams
			decodeParams("stitchDir", arg, &p)
			return svc.StitchDirectory(runCtx, p)
		},
	}
	for name, op := range bindings {
		op := op
		if err := vm.Set(name, func(call goja.FunctionCall) goja.Value {
			var arg goja.Value = goja.Undefined()
			if len(call.Arguments) > 0 {
				arg = call.Arguments[0]
			}
			return vm.ToValue(op(arg))
		}); err != nil {
			return nil, mustMarshalError("EVAL_ERROR", "failed to bind "+name), err
		}
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				if errVal, ok := r.(error); ok {
					runErr = errVal
				} else {
					runErr = fmt.Errorf("panic: %v", r)
				}
			}
		}()
		_, runErr = vm.RunString(in.Source)
	}()

	select {
	case <-done:
	case <-runCtx.Done():
		vm.Interrupt("timeout")
		<-done
		runErr = sandbox.ErrTimeout
	}

	if runErr != nil {
		switch runErr {
		case sandbox.ErrOutputLimit:
			outJSON, mErr := json.Marshal(Output{Output: outBuf.String()})
			if mErr != nil {
				return nil, mustMarshalError("EVAL_ERROR", mErr.Error()), mErr
			}
			return outJSON, mustMarshalError("OUTPUT_LIMIT", fmt.Sprintf("output exceeded %d KB", maxKB)), sandbox.ErrOutputLimit
		case sandbox.ErrTimeout:
			return nil, mustMarshalError("TIMEOUT", fmt.Sprintf("execution exceeded %d ms", wall)), sandbox.ErrTimeout
		default:
			return nil, mustMarshalError("EVAL_ERROR", runErr.Error()), runErr
		}
	}

	outJSON, mErr := json.Marshal(Output{Output: outBuf.String()})
	if mErr != nil {
		return nil, mustMarshalError("EVAL_ERROR", mErr.Error()), mErr
	}
	return outJSON, nil, nil
}

// decodeParams converts a JS argument into typed params by a JSON
// round trip, so scalar-or-list fields normalize the same way as tool
// stdin. Failures panic and surface as EVAL_ERROR.
func decodeParams(op string, arg goja.Value, dst any) {
	var exported any
	if arg != nil && !goja.IsUndefined(arg) && !goja.IsNull(arg) {
		exported = arg.Export()
	}
	raw, err := json.Marshal(exported)
	if err != nil {
		panic(fmt.Errorf("%s: encode params: %v", op, err))
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		panic(fmt.Errorf("%s: invalid params: %v", op, err))
	}
}

func mustMarshalError(code, msg string) []byte {
	b, err := json.Marshal(Error{Code: code, Message: msg})
	if err != nil {
		return []byte(`{"code":"` + code + `","message":"` + msg + `"}`)
	}
	return b
}
