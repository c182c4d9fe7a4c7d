// Package sink is the only path by which install output reaches the operator.
// Installer narration is stripped of markup; status lines are written as is.
package sink

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Kind classifies a captured message.
type Kind string

// Message kinds accepted from installer engines.
const (
	KindMessage Kind = "message"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindNotice  Kind = "notice"
)

// Message is one piece of narration produced during an install.
type Message struct {
	Text string
	Kind Kind
}

// Emitter accepts narration, which may carry markup, and plain status lines.
type Emitter interface {
	Capture(msg Message)
	Line(text string)
}

// Sink writes messages to out in arrival order.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
	log zerolog.Logger
}

// New returns a Sink writing plain lines to out.
func New(out io.Writer, logger zerolog.Logger) *Sink {
	return &Sink{out: out, log: logger}
}

// Capture strips markup from msg.Text and writes the result as one line.
// Write failures are logged and otherwise ignored.
func (s *Sink) Capture(msg Message) {
	kind := msg.Kind
	if kind == "" {
		kind = KindMessage
	}
	s.write(StripMarkup(msg.Text), kind)
}

// Line writes text unchanged as one line.
func (s *Sink) Line(text string) {
	s.write(text, "")
}

func (s *Sink) write(text string, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.out, text); err != nil {
		s.log.Warn().Err(err).Msg("write message")
		return
	}
	if kind != "" {
		s.log.Debug().Str("kind", string(kind)).Msg("message emitted")
	}
}
