// Package adb implements automation.Backend by shelling out to the Android
// Debug Bridge.
//
// Gestures go through `input`, app launches through `monkey` and the service
// check reads the secure settings table. Text is typed with `input text`,
// which only supports ASCII; non-ASCII content is rejected.
package adb

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nadzzz/voxtap/internal/config"
)

// runFunc executes a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// packagePattern bounds what can reach the device shell as an app identifier.
var packagePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)+$`)

// Backend drives a device over adb.
type Backend struct {
	path          string
	serial        string
	service       string
	swipeDuration time.Duration
	run           runFunc
}

// New creates an adb backend from config.
func New(cfg config.ADBConfig) *Backend {
	path := cfg.Path
	if path == "" {
		path = "adb"
	}
	return &Backend{
		path:          path,
		serial:        cfg.Serial,
		service:       cfg.Service,
		swipeDuration: cfg.SwipeDuration,
		run:           execRun,
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "adb" }

// ServiceRunning checks the enabled accessibility services. When a service
// component is configured it must be listed; otherwise any enabled
// accessibility service counts.
func (b *Backend) ServiceRunning(ctx context.Context) (bool, error) {
	if b.service != "" {
		out, err := b.shell(ctx, "settings", "get", "secure", "enabled_accessibility_services")
		if err != nil {
			return false, err
		}
		for _, svc := range strings.Split(strings.TrimSpace(out), ":") {
			if svc == b.service {
				return true, nil
			}
		}
		return false, nil
	}

	out, err := b.shell(ctx, "settings", "get", "secure", "accessibility_enabled")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "1", nil
}

// OpenSettings opens the accessibility settings screen.
func (b *Backend) OpenSettings(ctx context.Context) error {
	_, err := b.shell(ctx, "am", "start", "-a", "android.settings.ACCESSIBILITY_SETTINGS")
	return err
}

// OpenApp launches the app's launcher activity. Identifiers that are not
// package names are reported as not found without touching the device.
func (b *Backend) OpenApp(ctx context.Context, identifier string) (bool, error) {
	if !packagePattern.MatchString(identifier) {
		slog.Debug("adb open_app: not a package name", "identifier", identifier)
		return false, nil
	}
	out, err := b.shell(ctx, "monkey", "-p", identifier, "-c", "android.intent.category.LAUNCHER", "1")
	if strings.Contains(out, "No activities found") {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Tap touches the screen at (x, y).
func (b *Backend) Tap(ctx context.Context, x, y int) error {
	_, err := b.shell(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// Swipe drags from (x1, y1) to (x2, y2).
func (b *Backend) Swipe(ctx context.Context, x1, y1, x2, y2 int) error {
	args := []string{"input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2)}
	if b.swipeDuration > 0 {
		args = append(args, strconv.FormatInt(b.swipeDuration.Milliseconds(), 10))
	}
	_, err := b.shell(ctx, args...)
	return err
}

// PasteText types content into the focused field.
func (b *Backend) PasteText(ctx context.Context, content string) error {
	chunks, err := escapeInputText(content)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if _, err := b.shell(ctx, "input", "text", chunk); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; every call is a separate adb process.
func (b *Backend) Close() error { return nil }

func (b *Backend) shell(ctx context.Context, args ...string) (string, error) {
	full := make([]string, 0, len(args)+3)
	if b.serial != "" {
		full = append(full, "-s", b.serial)
	}
	full = append(full, "shell")
	full = append(full, args...)

	slog.Debug("adb shell", "args", full)
	out, err := b.run(ctx, b.path, full...)
	if err != nil {
		return string(out), fmt.Errorf("adb %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// escapeInputText encodes content for `input text`, which runs through the
// device shell and turns every "%s" into a space. A literal "%s" cannot be
// escaped, so the content is split between the '%' and the 's' and each chunk
// is typed with its own command.
func escapeInputText(content string) ([]string, error) {
	var (
		chunks []string
		sb     strings.Builder
		prev   rune
	)
	for _, r := range content {
		if r == 's' && prev == '%' {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		switch {
		case r > 0x7e || (r < 0x20 && r != ' '):
			return nil, fmt.Errorf("input text supports printable ASCII only, got %q", r)
		case r == ' ':
			sb.WriteString("%s")
		case strings.ContainsRune("\\'\"`()<>|;&*~$#!?[]{}%", r):
			sb.WriteRune('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
		prev = r
	}
	return append(chunks, sb.String()), nil
}
