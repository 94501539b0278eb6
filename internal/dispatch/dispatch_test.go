package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/voxtap/internal/automation"
	"github.com/nadzzz/voxtap/internal/command"
	"github.com/nadzzz/voxtap/internal/metrics"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	calls     []string
	installed map[string]bool
	err       error
	panicMsg  string
	block     chan struct{}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) record(op string) error {
	f.calls = append(f.calls, op)
	if f.block != nil {
		<-f.block
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.err
}

func (f *fakeBackend) ServiceRunning(context.Context) (bool, error) {
	return true, f.record(automation.OpServiceRunning)
}
func (f *fakeBackend) OpenSettings(context.Context) error {
	return f.record(automation.OpOpenSettings)
}
func (f *fakeBackend) OpenApp(_ context.Context, id string) (bool, error) {
	err := f.record(automation.OpOpenApp)
	return f.installed[id], err
}
func (f *fakeBackend) Tap(context.Context, int, int) error { return f.record(automation.OpTap) }
func (f *fakeBackend) Swipe(context.Context, int, int, int, int) error {
	return f.record(automation.OpSwipe)
}
func (f *fakeBackend) PasteText(context.Context, string) error {
	return f.record(automation.OpPasteText)
}
func (f *fakeBackend) Close() error { return nil }

func TestDispatchSuccess(t *testing.T) {
	tests := []struct {
		name    string
		action  command.Action
		op      string
		message string
	}{
		{name: "open app", action: command.OpenApp{Target: "com.example.app"}, op: automation.OpOpenApp, message: "launched app: com.example.app"},
		{name: "tap", action: command.Tap{X: 100, Y: 200}, op: automation.OpTap, message: "tapped (100, 200)"},
		{name: "swipe", action: command.Swipe{X1: 10, Y1: 20, X2: 30, Y2: 40}, op: automation.OpSwipe, message: "swiped (10, 20) -> (30, 40)"},
		{name: "insert", action: command.InsertText{Content: "hello world"}, op: automation.OpPasteText, message: "inserted text: hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{installed: map[string]bool{"com.example.app": true}}
			out := New(backend).Dispatch(context.Background(), tt.action)

			assert.True(t, out.Success)
			assert.Equal(t, tt.message, out.Message)
			assert.NoError(t, out.Err)
			assert.Equal(t, []string{tt.op}, backend.calls)
		})
	}
}

func TestDispatchAppNotFound(t *testing.T) {
	backend := &fakeBackend{}
	out := New(backend).Dispatch(context.Background(), command.OpenApp{Target: "com.missing"})

	assert.False(t, out.Success)
	assert.Equal(t, "app not found: com.missing", out.Message)
	assert.NoError(t, out.Err)
}

func TestDispatchUnrecognizedSkipsBackend(t *testing.T) {
	backend := &fakeBackend{}
	out := New(backend).Dispatch(context.Background(), command.Parse("tap here"))

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "bad coordinates")
	var perr *command.ParseError
	assert.ErrorAs(t, out.Err, &perr)
	assert.Empty(t, backend.calls)
}

func TestDispatchBackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("device offline")}
	out := New(backend).Dispatch(context.Background(), command.Tap{X: 1, Y: 2})

	assert.False(t, out.Success)
	assert.Equal(t, "execution failed: device offline", out.Message)

	var berr *automation.BackendError
	require.ErrorAs(t, out.Err, &berr)
	assert.Equal(t, "fake", berr.Backend)
	assert.Equal(t, automation.OpTap, berr.Op)
	assert.Len(t, backend.calls, 1, "no retries")
}

func TestDispatchBackendPanic(t *testing.T) {
	backend := &fakeBackend{panicMsg: "nil node"}
	out := New(backend).Dispatch(context.Background(), command.InsertText{Content: "x"})

	assert.False(t, out.Success)
	assert.Equal(t, "execution failed: panic: nil node", out.Message)
}

func TestDispatchCallTimeout(t *testing.T) {
	backend := &fakeBackend{block: make(chan struct{})}
	defer close(backend.block)

	m := metrics.New()
	d := New(backend, WithCallTimeout(20*time.Millisecond), WithMetrics(m))

	start := time.Now()
	out := d.Dispatch(context.Background(), command.Swipe{X1: 1, Y1: 2, X2: 3, Y2: 4})

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, out.Success)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Contains(t, out.Message, "abandoned")
}
