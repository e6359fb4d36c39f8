package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line while a slow step runs, such as PDF or PNG
// conversion. It stops on its own when the parent context is cancelled.
type spinner struct {
	out     io.Writer
	message string

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

// startSpinner starts a spinner on stderr.
func startSpinner(ctx context.Context, message string) *spinner {
	return startSpinnerTo(ctx, os.Stderr, message)
}

func startSpinnerTo(ctx context.Context, out io.Writer, message string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	s := &spinner{
		out:     out,
		message: message,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
			s.mu.Unlock()
		}
	}
}

// stop halts the animation and clears the line. It is safe to call more
// than once.
func (s *spinner) stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
		s.mu.Unlock()
	})
}
