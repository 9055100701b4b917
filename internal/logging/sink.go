package logging

import (
	"log/slog"
	"sync"
)

// Sink receives human-readable operator events. Implementations must be
// safe for use from any goroutine and give no feedback to the caller.
type Sink interface {
	Event(msg string)
}

// Discard drops every event.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Event(string) {}

// SlogSink forwards events to a slog.Logger at INFO level.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger.With("component", "events")}
}

func (s *SlogSink) Event(msg string) {
	s.logger.Info(msg)
}

// Recorder keeps the most recent events in emission order.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	events []string
}

// NewRecorder creates a recorder holding at most limit events.
// A limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Event(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msg)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = append([]string(nil), r.events[len(r.events)-r.limit:]...)
	}
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Tail returns at most n of the newest events, oldest first.
func (r *Recorder) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n >= len(r.events) {
		return append([]string(nil), r.events...)
	}
	return append([]string(nil), r.events[len(r.events)-n:]...)
}

type teeSink []Sink

func (t teeSink) Event(msg string) {
	for _, s := range t {
		s.Event(msg)
	}
}

// Tee returns a sink delivering every event to each of sinks in order.
// Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	var out teeSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
