package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := startSpinnerTo(context.Background(), &out, "Converting")
	time.Sleep(200 * time.Millisecond)
	s.stop()

	got := out.String()
	if !strings.Contains(got, "Converting") {
		t.Errorf("spinner output %q should contain message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("spinner should end by clearing the line, got %q", got)
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var out syncBuffer
	s := startSpinnerTo(context.Background(), &out, "Testing")
	s.stop()
	s.stop()
	s.stop()
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	s := startSpinnerTo(ctx, &out, "Testing")
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after cancellation")
	}
	s.stop()
}
