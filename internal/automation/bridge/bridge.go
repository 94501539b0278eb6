// Package bridge implements automation.Backend against the HTTP API exposed by
// the voxtap accessibility service running on the device.
//
// Endpoints (JSON in and out):
//
//	GET  /service          -> {"running": bool}
//	POST /settings
//	POST /apps/open        {"identifier"}      -> {"opened": bool}
//	POST /gestures/tap     {"x","y"}
//	POST /gestures/swipe   {"x1","y1","x2","y2"}
//	POST /text/paste       {"content"}
//
// Errors are reported with a non-2xx status and {"error": "..."}.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/nadzzz/voxtap/internal/config"
)

// Backend talks to the on-device bridge.
type Backend struct {
	client *resty.Client
}

// New creates a bridge backend from config.
func New(cfg config.BridgeConfig) *Backend {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Backend{client: client}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "bridge" }

type errorBody struct {
	Error string `json:"error"`
}

// ServiceRunning asks the bridge whether its accessibility service is bound.
func (b *Backend) ServiceRunning(ctx context.Context) (bool, error) {
	var out struct {
		Running bool `json:"running"`
	}
	if err := b.do(ctx, "GET", "/service", nil, &out); err != nil {
		return false, err
	}
	return out.Running, nil
}

// OpenSettings asks the device to show the accessibility settings screen.
func (b *Backend) OpenSettings(ctx context.Context) error {
	return b.do(ctx, "POST", "/settings", nil, nil)
}

// OpenApp launches identifier; the bridge reports opened=false when no such
// app is installed.
func (b *Backend) OpenApp(ctx context.Context, identifier string) (bool, error) {
	var out struct {
		Opened bool `json:"opened"`
	}
	body := map[string]string{"identifier": identifier}
	if err := b.do(ctx, "POST", "/apps/open", body, &out); err != nil {
		return false, err
	}
	return out.Opened, nil
}

// Tap dispatches a tap gesture.
func (b *Backend) Tap(ctx context.Context, x, y int) error {
	return b.do(ctx, "POST", "/gestures/tap", map[string]int{"x": x, "y": y}, nil)
}

// Swipe dispatches a swipe gesture.
func (b *Backend) Swipe(ctx context.Context, x1, y1, x2, y2 int) error {
	body := map[string]int{"x1": x1, "y1": y1, "x2": x2, "y2": y2}
	return b.do(ctx, "POST", "/gestures/swipe", body, nil)
}

// PasteText pastes content into the focused node.
func (b *Backend) PasteText(ctx context.Context, content string) error {
	return b.do(ctx, "POST", "/text/paste", map[string]string{"content": content}, nil)
}

// Close releases idle connections.
func (b *Backend) Close() error {
	b.client.GetClient().CloseIdleConnections()
	return nil
}

func (b *Backend) do(ctx context.Context, method, path string, body, result any) error {
	req := b.client.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("bridge %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := strings.TrimSpace(resp.String())
		if e, ok := resp.Error().(*errorBody); ok && e.Error != "" {
			msg = e.Error
		}
		return fmt.Errorf("bridge %s %s: status %d: %s", method, path, resp.StatusCode(), msg)
	}

	slog.Debug("bridge call", "method", method, "path", path, "status", resp.StatusCode())
	return nil
}
