// Package automation defines the capability surface over platform
// accessibility automation primitives.
//
// Backends (adb, the on-device bridge) implement Backend. The rest of voxtap
// only calls these operations and treats any returned error as a failed
// dispatch; it never retries.
package automation

import (
	"context"
	"fmt"
)

// PlatformAndroid is the only platform with an accessibility automation backend.
const PlatformAndroid = "android"

// Operation names, used in errors, logs and metrics.
const (
	OpServiceRunning = "service_running"
	OpOpenSettings   = "open_settings"
	OpOpenApp        = "open_app"
	OpTap            = "tap"
	OpSwipe          = "swipe"
	OpPasteText      = "paste_text"
)

// Backend performs automation primitives against the device accessibility layer.
type Backend interface {
	// Name returns the backend identifier (e.g., "adb", "bridge").
	Name() string

	// ServiceRunning reports whether the accessibility service is enabled.
	ServiceRunning(ctx context.Context) (bool, error)

	// OpenSettings navigates the device to the accessibility settings screen.
	OpenSettings(ctx context.Context) error

	// OpenApp launches the app with the given identifier. It returns false
	// when no such app is installed.
	OpenApp(ctx context.Context, identifier string) (bool, error)

	// Tap touches the screen at (x, y).
	Tap(ctx context.Context, x, y int) error

	// Swipe drags from (x1, y1) to (x2, y2).
	Swipe(ctx context.Context, x1, y1, x2, y2 int) error

	// PasteText inserts content into the focused input field.
	PasteText(ctx context.Context, content string) error

	// Close releases any resources held by the backend.
	Close() error
}

// BackendError is a failure raised by a backend call.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
