// Package report carries progress and warning events out of the processing
// packages. Library code never logs; it talks to a Reporter supplied by the
// caller.
package report

import (
	"log/slog"
	"sync"
)

// Stage names one step of a harmony run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageSeparate Stage = "separate"
	StagePitch    Stage = "pitch"
	StageKey      Stage = "key"
	StageHarmony  Stage = "harmony"
	StageMix      Stage = "mix"
)

// Stages lists all stages in execution order.
var Stages = []Stage{StageLoad, StageSeparate, StagePitch, StageKey, StageHarmony, StageMix}

// Index returns the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, v := range Stages {
		if v == s {
			return i
		}
	}
	return -1
}

// Reporter receives progress messages and recoverable warnings.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Report(stage Stage, msg string)
	Warn(stage Stage, msg string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Report(Stage, string) {}
func (Nop) Warn(Stage, string)   {}

// Log writes events to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog adapts logger; nil uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Report(stage Stage, msg string) { l.logger.Info(msg, "stage", string(stage)) }
func (l *Log) Warn(stage Stage, msg string)   { l.logger.Warn(msg, "stage", string(stage)) }

// Multi fans events out to several reporters in order.
type Multi []Reporter

func (m Multi) Report(stage Stage, msg string) {
	for _, r := range m {
		r.Report(stage, msg)
	}
}

func (m Multi) Warn(stage Stage, msg string) {
	for _, r := range m {
		r.Warn(stage, msg)
	}
}

// Event is one recorded message.
type Event struct {
	Stage   Stage
	Message string
	Warning bool
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Report(stage Stage, msg string) { r.add(Event{Stage: stage, Message: msg}) }
func (r *Recorder) Warn(stage Stage, msg string) {
	r.add(Event{Stage: stage, Message: msg, Warning: true})
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of all events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Warnings returns only the warning events.
func (r *Recorder) Warnings() []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Warning {
			out = append(out, e)
		}
	}
	return out
}

// StagesSeen returns the distinct stages reported, in first-seen order.
func (r *Recorder) StagesSeen() []Stage {
	var out []Stage
	seen := map[Stage]bool{}
	for _, e := range r.Events() {
		if !seen[e.Stage] {
			seen[e.Stage] = true
			out = append(out, e.Stage)
		}
	}
	return out
}
