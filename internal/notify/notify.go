// Package notify delivers user-facing notices about transaction operations.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is one transient message for the user, e.g. "Income added successfully".
type Notice struct {
	Level     Level     `json:"level"`
	Kind      core.Kind `json:"kind"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

func Success(kind core.Kind, op, msg string) Notice {
	return Notice{Level: LevelSuccess, Kind: kind, Operation: op, Message: msg, Time: time.Now().UTC()}
}

func Failure(kind core.Kind, op, msg string) Notice {
	return Notice{Level: LevelError, Kind: kind, Operation: op, Message: msg, Time: time.Now().UTC()}
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Log writes notices to a structured logger.
type Log struct {
	logger *log.Logger
}

func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.Default(log.ComponentNotify)
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n Notice) error {
	args := []any{log.FieldKind, n.Kind.String(), log.FieldOperation, n.Operation, "notice", n.Message}
	if n.Level == LevelError {
		l.logger.WarnContext(ctx, "notice", args...)
	} else {
		l.logger.InfoContext(ctx, "notice", args...)
	}
	return nil
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, nt := range f {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
	return nil
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Last returns the most recent notice, if any.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
