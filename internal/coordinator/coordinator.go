// Package coordinator runs one instruction at a time through the
// parse → dispatch pipeline and records every completed execution.
//
// The coordinator is either Idle or Busy. A submission made while Busy is
// dropped rather than queued. While Idle, a submission is accepted only if it
// is non-empty, differs from the last accepted text, and the availability
// gate reports automation ready. Rejected submissions change nothing.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/voxtap/internal/command"
	"github.com/nadzzz/voxtap/internal/dispatch"
	"github.com/nadzzz/voxtap/internal/gate"
	"github.com/nadzzz/voxtap/internal/history"
	"github.com/nadzzz/voxtap/internal/metrics"
	"github.com/nadzzz/voxtap/internal/speech"
)

var (
	ErrEmpty     = errors.New("instruction is empty")
	ErrBusy      = errors.New("another instruction is still executing")
	ErrDuplicate = errors.New("instruction repeats the previous one")
)

// Gate reports whether automation may run and manages the service status.
type Gate interface {
	Ready(ctx context.Context) error
	CheckStatus(ctx context.Context) (gate.Status, error)
	PromptEnable(ctx context.Context)
	Platform() string
	Supported() bool
	Status() gate.Status
	Message() string
}

// Dispatcher executes a parsed action.
type Dispatcher interface {
	Dispatch(ctx context.Context, action command.Action) dispatch.Outcome
}

// Coordinator owns the busy flag, the last accepted text and the history.
type Coordinator struct {
	gate       Gate
	dispatcher Dispatcher
	history    *history.Log
	recognizer speech.Recognizer // nil when speech is disabled
	metrics    *metrics.Metrics
	now        func() time.Time

	// claimed serializes submissions from the busy check onward; busy is set
	// only once the preconditions pass and an instruction is executing.
	claimed atomic.Bool
	busy    atomic.Bool

	mu       sync.Mutex
	lastText string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecognizer enables audio messages.
func WithRecognizer(r speech.Recognizer) Option {
	return func(c *Coordinator) { c.recognizer = r }
}

// WithMetrics records executions, rejections and the busy flag.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates an idle Coordinator with an empty history.
func New(g Gate, d Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		gate:       g,
		dispatcher: d,
		history:    history.NewLog(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit executes text if the coordinator is idle and every precondition
// holds, and returns the new history record. Otherwise it returns one of
// ErrEmpty, ErrBusy, ErrDuplicate, gate.ErrPlatformUnsupported,
// gate.ErrServiceDisabled or a status check failure, and nothing is recorded.
//
// Once accepted, execution is not cancelled by ctx; only the dispatcher's
// call timeout, when configured, can cut a backend call short.
func (c *Coordinator) Submit(ctx context.Context, text string) (history.Record, error) {
	if strings.TrimSpace(text) == "" {
		return c.reject(ErrEmpty, "empty")
	}
	if !c.claimed.CompareAndSwap(false, true) {
		return c.reject(ErrBusy, "busy")
	}
	defer c.claimed.Store(false)

	c.mu.Lock()
	duplicate := text == c.lastText
	c.mu.Unlock()
	if duplicate {
		return c.reject(ErrDuplicate, "duplicate")
	}

	if err := c.gate.Ready(ctx); err != nil {
		switch {
		case errors.Is(err, gate.ErrPlatformUnsupported):
			return c.reject(err, "platform_unsupported")
		case errors.Is(err, gate.ErrServiceDisabled):
			return c.reject(err, "service_disabled")
		default:
			return c.reject(err, "status_check_failed")
		}
	}

	c.mu.Lock()
	c.lastText = text
	c.mu.Unlock()

	c.busy.Store(true)
	c.metrics.SetBusy(true)
	defer func() {
		c.busy.Store(false)
		c.metrics.SetBusy(false)
	}()

	action := command.Parse(text)
	outcome := c.dispatcher.Dispatch(context.WithoutCancel(ctx), action)

	rec := history.Record{
		ID:          uuid.NewString(),
		Timestamp:   c.now(),
		Instruction: text,
		Action:      string(action.Kind()),
		Success:     outcome.Success,
		Outcome:     outcome.Message,
	}
	c.history.Add(rec)

	c.metrics.ObserveExecution(rec.Action, rec.Success)
	c.metrics.SetHistorySize(c.history.Len())
	slog.Info("instruction executed",
		"action", rec.Action,
		"success", rec.Success,
		"outcome", rec.Outcome)
	return rec, nil
}

func (c *Coordinator) reject(err error, reason string) (history.Record, error) {
	c.metrics.ObserveRejection(reason)
	slog.Debug("instruction rejected", "reason", reason)
	return history.Record{}, err
}

// Busy reports whether an instruction is executing.
func (c *Coordinator) Busy() bool { return c.busy.Load() }

// History returns every record, newest first.
func (c *Coordinator) History() []history.Record { return c.history.List() }

// Subscribe streams records as they are added.
func (c *Coordinator) Subscribe(buffer int) (<-chan history.Record, func()) {
	return c.history.Subscribe(buffer)
}
