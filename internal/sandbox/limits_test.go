package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestBoundedBuffer_TruncatesAndSignals(t *testing.T) {
	buf := NewBoundedBuffer(1) // 1 KiB
	payload := strings.Repeat("A", 1536)
	n, err := buf.Write([]byte(payload))
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err != ErrOutputLimit {
		t.Fatalf("expected ErrOutputLimit, got %v", err)
	}
	if n != 1024 {
		t.Fatalf("expected partial write of 1024, got %d", n)
	}
	if !buf.Truncated() {
		t.Fatalf("expected truncated=true")
	}
	if len(buf.Bytes()) != 1024 {
		t.Fatalf("expected buffer length 1024, got %d", len(buf.Bytes()))
	}
}

func TestBoundedBuffer_FitsWithinCap(t *testing.T) {
	buf := NewBoundedBuffer(2) // 2 KiB
	payload := strings.Repeat("B", 1500)
	n, err := buf.Write([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1500 {
		t.Fatalf("expected full write of 1500, got %d", n)
	}
	if buf.Truncated() {
		t.Fatalf("did not expect truncation")
	}
	if len(buf.Bytes()) != 1500 {
		t.Fatalf("expected buffer length 1500, got %d", len(buf.Bytes()))
	}
}

func TestBoundedBuffer_DefaultCapIs64KB(t *testing.T) {
	buf := NewBoundedBuffer(0)
	payload := strings.Repeat("C", 64*1024)
	if _, err := buf.Write([]byte(payload)); err != nil {
		t.Fatalf("write at cap: %v", err)
	}
	if _, err := buf.Write([]byte("x")); err != ErrOutputLimit {
		t.Fatalf("expected ErrOutputLimit past cap, got %v", err)
	}
}

func TestWithWallTimeout_TimesOutRoughlyOnBudget(t *testing.T) {
	ctx, cancel := WithWallTimeout(context.Background(), 50)
	defer cancel()

	start := time.Now()
	<-ctx.Done()
	elapsed := time.Since(start)
	if elapsed < 40*time.Millisecond || elapsed > 250*time.Millisecond {
		t.Fatalf("expected ~50ms timeout, got %v", elapsed)
	}
}

func TestWithWallTimeout_ZeroBudgetMeansNoLimit(t *testing.T) {
	ctx, cancel := WithWallTimeout(context.Background(), 0)
	defer cancel()

	select {
	case <-ctx.Done():
		t.Fatalf("context should not be canceled without a budget")
	case <-time.After(20 * time.Millisecond):
	}
	if ctx.Err() != nil {
		t.Fatalf("unexpected context error: %v", ctx.Err())
	}
}
