package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/voxtap/internal/history"
	"github.com/nadzzz/voxtap/internal/message"
)

type fakeConsole struct {
	log        *history.Log
	checks     int
	prompted   int
	subscribed chan struct{}
}

func (f *fakeConsole) History() []history.Record { return f.log.List() }
func (f *fakeConsole) Subscribe(n int) (<-chan history.Record, func()) {
	ch, cancel := f.log.Subscribe(n)
	close(f.subscribed)
	return ch, cancel
}
func (f *fakeConsole) ServiceStatus() message.ServiceStatus {
	return message.ServiceStatus{Platform: "android", Supported: true, Status: "unknown"}
}
func (f *fakeConsole) CheckService(context.Context) message.ServiceStatus {
	f.checks++
	return message.ServiceStatus{Platform: "android", Supported: true, Status: "enabled"}
}
func (f *fakeConsole) PromptEnable(context.Context) message.ServiceStatus {
	f.prompted++
	return message.ServiceStatus{Platform: "android", Supported: true, Message: "opened"}
}

type recordingHandler struct {
	mu   sync.Mutex
	msgs []*message.Message
}

func (h *recordingHandler) handle(_ context.Context, msg *message.Message) (*message.Result, error) {
	h.mu.Lock()
	h.msgs = append(h.msgs, msg)
	h.mu.Unlock()
	return &message.Result{MessageID: msg.ID, Accepted: true}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeConsole, *recordingHandler) {
	t.Helper()
	console := &fakeConsole{log: history.NewLog(), subscribed: make(chan struct{})}
	h := &recordingHandler{}
	srv := httptest.NewServer(New(0, console).Routes(h.handle))
	t.Cleanup(srv.Close)
	return srv, console, h
}

func TestPostInstructionJSON(t *testing.T) {
	srv, _, h := newTestServer(t)

	resp, err := http.Post(srv.URL+"/instructions", "application/json",
		strings.NewReader(`{"text": "tap 100,200", "source": "phone"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var res message.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Accepted)

	require.Len(t, h.msgs, 1)
	assert.Equal(t, "tap 100,200", h.msgs[0].Text)
	assert.Equal(t, "phone", h.msgs[0].Source)
	assert.Equal(t, h.msgs[0].ID, res.MessageID)
}

func TestPostInstructionPlainText(t *testing.T) {
	srv, _, h := newTestServer(t)

	resp, err := http.Post(srv.URL+"/instructions", "text/plain; charset=utf-8", strings.NewReader("insert hello"))
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, h.msgs, 1)
	assert.Equal(t, "insert hello", h.msgs[0].Text)
	assert.Equal(t, "http", h.msgs[0].Source)
}

func TestPostInstructionBadJSON(t *testing.T) {
	srv, _, h := newTestServer(t)

	resp, err := http.Post(srv.URL+"/instructions", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, h.msgs)
}

func TestPostSpeech(t *testing.T) {
	srv, _, h := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/speech", strings.NewReader("RIFF...."))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("X-Voxtap-Source", "kitchen-mic")
	req.Header.Set("X-Voxtap-Language", "en")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, h.msgs, 1)
	assert.True(t, h.msgs[0].HasAudio())
	assert.Equal(t, "audio/wav", h.msgs[0].ContentType)
	assert.Equal(t, "kitchen-mic", h.msgs[0].Source)
	assert.Equal(t, "en", h.msgs[0].Language)

	sniff, err := http.NewRequest(http.MethodPost, srv.URL+"/speech",
		strings.NewReader("RIFF\x24\x00\x00\x00WAVEfmt "))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(sniff)
	require.NoError(t, err)
	resp.Body.Close()
	require.Len(t, h.msgs, 2)
	assert.Equal(t, "audio/wav", h.msgs[1].ContentType)

	resp, err = http.Post(srv.URL+"/speech", "audio/wav", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryAndServiceEndpoints(t *testing.T) {
	srv, console, _ := newTestServer(t)
	console.log.Add(history.Record{ID: "1", Instruction: "tap 1,2", Outcome: "tapped (1, 2)"})
	console.log.Add(history.Record{ID: "2", Instruction: "tap 3,4", Outcome: "tapped (3, 4)"})

	resp, err := http.Get(srv.URL + "/history")
	require.NoError(t, err)
	var records []history.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	resp.Body.Close()
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[0].ID)

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	var st message.ServiceStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, "unknown", st.Status)

	resp, err = http.Post(srv.URL+"/service/check", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = http.Post(srv.URL+"/service/settings", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1, console.checks)
	assert.Equal(t, 1, console.prompted)
}

func TestFeed(t *testing.T) {
	srv, console, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-console.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("feed never subscribed")
	}
	console.log.Add(history.Record{ID: "live", Outcome: "tapped (1, 2)"})

	var got history.Record
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "live", got.ID)
}
