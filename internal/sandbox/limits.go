// Package sandbox bounds what a batch script or captured subprocess
// stream may consume. Stitching runs can produce output for hours, so
// every capture path goes through a capped buffer instead of growing
// without limit.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"time"
)

// ErrOutputLimit is returned when a bounded writer exceeds its cap.
var ErrOutputLimit = errors.New("OUTPUT_LIMIT")

// ErrTimeout signals that execution exceeded the wall-clock budget.
var ErrTimeout = errors.New("TIMEOUT")

// BoundedBuffer is an io.Writer that caps total bytes written. A write
// that crosses the cap is truncated to fit and returns ErrOutputLimit;
// the retained prefix stays available through Bytes and String. The
// buffer never grows beyond the configured capacity.
type BoundedBuffer struct {
	buf       bytes.Buffer
	capBytes  int
	truncated bool
}

// NewBoundedBuffer returns a buffer capped at maxKB KiB. Zero or
// negative maxKB falls back to 64 KiB.
func NewBoundedBuffer(maxKB int) *BoundedBuffer {
	if maxKB <= 0 {
		maxKB = 64
	}
	return &BoundedBuffer{capBytes: maxKB * 1024}
}

func (b *BoundedBuffer) Write(p []byte) (int, error) {
	remaining := b.capBytes - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return 0, ErrOutputLimit
	}
	if len(p) > remaining {
		_, _ = b.buf.Write(p[:remaining])
		b.truncated = true
		return remaining, ErrOutputLimit
	}
	return b.buf.Write(p)
}

// Bytes returns the retained contents, truncated at the cap.
func (b *BoundedBuffer) Bytes() []byte { return b.buf.Bytes() }

// String returns the retained contents as a string.
func (b *BoundedBuffer) String() string { return b.buf.String() }

// Truncated reports whether any write exceeded the cap.
func (b *BoundedBuffer) Truncated() bool { return b.truncated }

// WithWallTimeout derives a context canceled after wallMS milliseconds.
// A zero or negative budget means no limit; registration jobs routinely
// run far longer than any sensible default would allow.
func WithWallTimeout(parent context.Context, wallMS int) (context.Context, context.CancelFunc) {
	if wallMS <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, time.Duration(wallMS)*time.Millisecond)
}
