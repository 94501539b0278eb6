// Package dispatch executes parsed actions against the automation backend.
//
// The dispatcher makes exactly one backend call per action and never retries.
// Whatever the backend does (return false, return an error, panic) is turned
// into an Outcome; nothing escapes Dispatch.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nadzzz/voxtap/internal/automation"
	"github.com/nadzzz/voxtap/internal/command"
	"github.com/nadzzz/voxtap/internal/metrics"
)

// Outcome is the result of executing one action.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Err is the typed failure: *command.ParseError, *automation.BackendError,
	// or nil for a successful action or an app that was not found.
	Err error `json:"-"`
}

// Dispatcher maps actions to backend calls.
type Dispatcher struct {
	backend automation.Backend
	timeout time.Duration
	metrics *metrics.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCallTimeout bounds every backend call. A call still running when the
// bound expires is abandoned and reported as a backend failure.
func WithCallTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithMetrics records backend call latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(disp *Dispatcher) { disp.metrics = m }
}

// New creates a Dispatcher for the given backend.
func New(backend automation.Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{backend: backend}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes action and describes the result.
func (d *Dispatcher) Dispatch(ctx context.Context, action command.Action) Outcome {
	switch a := action.(type) {
	case command.OpenApp:
		var opened bool
		err := d.call(ctx, automation.OpOpenApp, func(ctx context.Context) error {
			var err error
			opened, err = d.backend.OpenApp(ctx, a.Target)
			return err
		})
		if err != nil {
			return failure(err)
		}
		if !opened {
			return Outcome{Message: "app not found: " + a.Target}
		}
		return Outcome{Success: true, Message: "launched app: " + a.Target}

	case command.Tap:
		err := d.call(ctx, automation.OpTap, func(ctx context.Context) error {
			return d.backend.Tap(ctx, a.X, a.Y)
		})
		if err != nil {
			return failure(err)
		}
		return Outcome{Success: true, Message: fmt.Sprintf("tapped (%d, %d)", a.X, a.Y)}

	case command.Swipe:
		err := d.call(ctx, automation.OpSwipe, func(ctx context.Context) error {
			return d.backend.Swipe(ctx, a.X1, a.Y1, a.X2, a.Y2)
		})
		if err != nil {
			return failure(err)
		}
		return Outcome{
			Success: true,
			Message: fmt.Sprintf("swiped (%d, %d) -> (%d, %d)", a.X1, a.Y1, a.X2, a.Y2),
		}

	case command.InsertText:
		err := d.call(ctx, automation.OpPasteText, func(ctx context.Context) error {
			return d.backend.PasteText(ctx, a.Content)
		})
		if err != nil {
			return failure(err)
		}
		return Outcome{Success: true, Message: "inserted text: " + a.Content}

	case command.Unrecognized:
		err := a.Err()
		return Outcome{Message: err.Error(), Err: err}

	default:
		err := fmt.Errorf("unsupported action %T", action)
		return Outcome{Message: err.Error(), Err: err}
	}
}

// call runs fn once, converting errors and panics into *automation.BackendError.
func (d *Dispatcher) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("abandoned: %w", ctx.Err())
	}

	d.metrics.ObserveBackendCall(op, time.Since(start), err)
	if err != nil {
		slog.Warn("backend call failed", "backend", d.backend.Name(), "op", op, "error", err)
		return &automation.BackendError{Backend: d.backend.Name(), Op: op, Err: err}
	}
	return nil
}

func failure(err error) Outcome {
	msg := err.Error()
	var berr *automation.BackendError
	if errors.As(err, &berr) {
		msg = berr.Err.Error()
	}
	return Outcome{Message: "execution failed: " + msg, Err: err}
}
