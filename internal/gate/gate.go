// Package gate decides whether automation may run: the platform must have an
// automation backend and its accessibility service must be enabled.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nadzzz/voxtap/internal/automation"
)

var (
	// ErrPlatformUnsupported is returned on platforms without an automation
	// backend. No backend call is made.
	ErrPlatformUnsupported = errors.New("cross-app automation requires the Android accessibility service; this platform is not supported")

	// ErrServiceDisabled is returned while the accessibility service is off.
	ErrServiceDisabled = errors.New("accessibility service is disabled; open accessibility settings and enable the voxtap automation service")
)

// Status is the accessibility service state as last observed.
type Status int

const (
	StatusUnknown Status = iota
	StatusEnabled
	StatusDisabled
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusEnabled:
		return "enabled"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its string form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// User-facing status messages.
const (
	msgNotChecked       = "accessibility status not checked yet"
	msgEnabled          = "accessibility service enabled; taps and swipes can be sent"
	msgDisabled         = "accessibility service disabled; open accessibility settings and enable the voxtap automation service"
	msgCheckFailed      = "unable to read accessibility status; confirm it in system settings"
	msgSettingsOpened   = "opened accessibility settings; enable the voxtap automation service and come back"
	msgSettingsFailed   = "unable to open accessibility settings; go to Settings > Accessibility manually"
	msgPlatformMismatch = "cross-app automation is only supported on Android"
)

// Gate owns the service status. Only CheckStatus changes it.
type Gate struct {
	platform    string
	backend     automation.Backend
	callTimeout time.Duration

	mu      sync.RWMutex
	status  Status
	message string
}

// Option configures a Gate.
type Option func(*Gate)

// WithCallTimeout bounds every backend call the gate makes. Zero leaves
// calls unbounded.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Gate) { g.callTimeout = d }
}

// New creates a Gate for platform. backend may be nil when the platform has none.
func New(platform string, backend automation.Backend, opts ...Option) *Gate {
	g := &Gate{
		platform: platform,
		backend:  backend,
		message:  msgNotChecked,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Platform returns the configured platform name.
func (g *Gate) Platform() string { return g.platform }

// Supported reports whether automation can run on this platform at all.
func (g *Gate) Supported() bool {
	return g.platform == automation.PlatformAndroid && g.backend != nil
}

// Status returns the last observed service status.
func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Message returns the current user-facing status message.
func (g *Gate) Message() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.message
}

// CheckStatus asks the backend whether the accessibility service is running.
// On an unsupported platform it returns ErrPlatformUnsupported without
// calling the backend. A failed check leaves the status unchanged.
func (g *Gate) CheckStatus(ctx context.Context) (Status, error) {
	if !g.Supported() {
		g.setMessage(msgPlatformMismatch)
		return g.Status(), ErrPlatformUnsupported
	}

	callCtx, cancel := g.bound(ctx)
	defer cancel()
	running, err := g.backend.ServiceRunning(callCtx)
	if err != nil {
		slog.Error("checking accessibility status failed", "backend", g.backend.Name(), "error", err)
		g.setMessage(msgCheckFailed)
		return g.Status(), &automation.BackendError{Backend: g.backend.Name(), Op: automation.OpServiceRunning, Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if running {
		g.status, g.message = StatusEnabled, msgEnabled
	} else {
		g.status, g.message = StatusDisabled, msgDisabled
	}
	slog.Info("accessibility status checked", "status", g.status)
	return g.status, nil
}

// PromptEnable sends the user to the accessibility settings screen. Failure
// is not fatal; it only changes the status message.
func (g *Gate) PromptEnable(ctx context.Context) {
	if !g.Supported() {
		g.setMessage(msgPlatformMismatch)
		return
	}
	callCtx, cancel := g.bound(ctx)
	defer cancel()
	if err := g.backend.OpenSettings(callCtx); err != nil {
		slog.Warn("opening accessibility settings failed", "backend", g.backend.Name(), "error", err)
		g.setMessage(msgSettingsFailed)
		return
	}
	g.setMessage(msgSettingsOpened)
}

// Ready returns nil when automation may run. An unknown status is resolved
// with one CheckStatus call first.
func (g *Gate) Ready(ctx context.Context) error {
	if !g.Supported() {
		return ErrPlatformUnsupported
	}
	status := g.Status()
	if status == StatusUnknown {
		var err error
		if status, err = g.CheckStatus(ctx); err != nil {
			return err
		}
	}
	if status != StatusEnabled {
		return ErrServiceDisabled
	}
	return nil
}

func (g *Gate) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.callTimeout)
}

func (g *Gate) setMessage(msg string) {
	g.mu.Lock()
	g.message = msg
	g.mu.Unlock()
}
