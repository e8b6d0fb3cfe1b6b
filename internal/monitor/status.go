package monitor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// StatusSink receives the human-readable status of the loop.
type StatusSink interface {
	// Status reports the waiting state. It is called on every tick.
	Status(text string)
	// Event reports something that happened, such as a firing or a failure.
	Event(text string)
}

// StatusWriter writes status lines to a terminal or a plain stream.
// On a terminal the waiting line is rewritten in place; elsewhere a line is
// written only when the text changes.
type StatusWriter struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	last    string
	pending bool // a rewritable line is on screen without a newline
}

// NewStatusWriter creates a writer for f, detecting whether it is a terminal.
func NewStatusWriter(f *os.File) *StatusWriter {
	fd := f.Fd()
	return NewStatusWriterTo(f, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewStatusWriterTo creates a writer for w.
func NewStatusWriterTo(w io.Writer, tty bool) *StatusWriter {
	return &StatusWriter{w: w, tty: tty}
}

// Status implements StatusSink.
func (s *StatusWriter) Status(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tty {
		if text != s.last {
			_, _ = fmt.Fprintln(s.w, text)
		}
		s.last = text
		return
	}

	if text == s.last && s.pending {
		return
	}
	_, _ = fmt.Fprint(s.w, "\r"+s.pad(text))
	s.last = text
	s.pending = true
}

// Event implements StatusSink.
func (s *StatusWriter) Event(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tty && s.pending {
		_, _ = fmt.Fprintln(s.w, "\r"+s.pad(text))
	} else {
		_, _ = fmt.Fprintln(s.w, text)
	}
	s.last = ""
	s.pending = false
}

// Close ends a rewritable line so the shell prompt starts on its own line.
func (s *StatusWriter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		_, _ = fmt.Fprintln(s.w)
		s.pending = false
	}
}

// pad extends text with spaces to cover the previous line.
func (s *StatusWriter) pad(text string) string {
	if n := len(s.last) - len(text); n > 0 && s.pending {
		return text + strings.Repeat(" ", n)
	}
	return text
}
