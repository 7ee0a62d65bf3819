package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status line while a stage runs. A nil *spinner is a
// valid no-op, so callers can skip it when stdout carries data.
type spinner struct {
	w      io.Writer
	parent context.Context
	cancel context.CancelFunc
	exited chan struct{}

	mu    sync.Mutex
	msg   string
	width int
}

// startSpinner draws msg on w until Stop is called or ctx ends.
func startSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	inner, cancel := context.WithCancel(ctx)
	s := &spinner{w: w, parent: ctx, cancel: cancel, exited: make(chan struct{}), msg: msg}
	go s.run(inner)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.exited)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-tick.C:
			s.mu.Lock()
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg))
			s.width = max(s.width, len(s.msg)+2)
			s.mu.Unlock()
		}
	}
}

// Update replaces the message shown next to the spinner.
func (s *spinner) Update(msg string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
}

// Stop halts the animation and blanks the line. Calling it again is a no-op.
func (s *spinner) Stop() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.exited
}

// Interrupted reports whether the spinner ended because its parent
// context did, rather than through Stop.
func (s *spinner) Interrupted() bool {
	return s != nil && s.parent.Err() != nil
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}
