// Package http implements the HTTP/WebSocket transport for voxtap.
//
// This transport exposes a REST API for manual and speech instructions, the
// execution history and accessibility service controls, plus a WebSocket feed
// of new history records. It is what the presentation layer talks to.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/voxtap/docs" // registers the OpenAPI spec
	"github.com/nadzzz/voxtap/internal/history"
	"github.com/nadzzz/voxtap/internal/message"
	"github.com/nadzzz/voxtap/internal/transport"
)

const (
	maxTextBytes  = 64 << 10
	maxAudioBytes = 25 << 20
)

// Console is the read side and service controls used by the presentation layer.
type Console interface {
	History() []history.Record
	Subscribe(buffer int) (<-chan history.Record, func())
	ServiceStatus() message.ServiceStatus
	CheckService(ctx context.Context) message.ServiceStatus
	PromptEnable(ctx context.Context) message.ServiceStatus
}

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port     int
	console  Console
	server   *http.Server
	upgrader websocket.Upgrader
}

// New creates a new HTTP transport on the given port.
func New(port int, console Console) *Transport {
	return &Transport{
		port:    port,
		console: console,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Routes builds the request multiplexer.
func (t *Transport) Routes(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /instructions", func(w http.ResponseWriter, r *http.Request) {
		t.handleInstruction(w, r, handler)
	})
	mux.HandleFunc("POST /speech", func(w http.ResponseWriter, r *http.Request) {
		t.handleSpeech(w, r, handler)
	})
	mux.HandleFunc("GET /history", t.handleHistory)
	mux.HandleFunc("GET /status", t.handleStatus)
	mux.HandleFunc("POST /service/check", t.handleCheck)
	mux.HandleFunc("POST /service/settings", t.handleSettings)
	mux.HandleFunc("GET /ws", t.handleFeed)

	// Swagger UI for the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Routes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// instructionRequest is the JSON body of POST /instructions.
type instructionRequest struct {
	Text   string `json:"text" example:"tap 100,200"`
	Source string `json:"source,omitempty" example:"phone-alice"`
}

// handleInstruction processes a POST /instructions request.
//
// @Summary     Submit an instruction
// @Description Accepts a typed instruction as JSON or text/plain and executes it if the
// @Description coordinator is idle, the text is new and the accessibility service is enabled.
// @Tags        instructions
// @Accept      json
// @Accept      plain
// @Produce     json
// @Param       instruction  body      instructionRequest  true  "Instruction"
// @Success     200  {object}  message.Result  "Execution record or rejection reason"
// @Failure     400  {string}  string  "Invalid request body"
// @Router      /instructions [post]
func (t *Transport) handleInstruction(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var req instructionRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	body := io.LimitReader(r.Body, maxTextBytes)
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	default:
		data, err := io.ReadAll(body)
		if err != nil {
			http.Error(w, "reading body: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Text = string(data)
	}
	if req.Source == "" {
		req.Source = r.Header.Get("X-Voxtap-Source")
	}

	t.respond(w, r, handler, message.New(sourceOr(req.Source, "http"), req.Text))
}

// handleSpeech processes a POST /speech request.
//
// @Summary     Submit a spoken instruction
// @Description Raw audio bytes are transcribed by the configured Whisper endpoint and the
// @Description transcript is submitted like a typed instruction.
// @Tags        instructions
// @Accept      audio/wav
// @Accept      audio/ogg
// @Produce     json
// @Param       X-Voxtap-Source    header  string  false  "Sender identifier"
// @Param       X-Voxtap-Language  header  string  false  "ISO-639-1 language hint"
// @Success     200  {object}  message.Result  "Execution record or rejection reason"
// @Failure     400  {string}  string  "Missing or unreadable audio"
// @Router      /speech [post]
func (t *Transport) handleSpeech(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		http.Error(w, "reading audio: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(audio) == 0 {
		http.Error(w, "empty audio body", http.StatusBadRequest)
		return
	}

	msg := message.NewAudio(sourceOr(r.Header.Get("X-Voxtap-Source"), "http"), audio, audioContentType(r, audio))
	msg.Language = r.Header.Get("X-Voxtap-Language")
	t.respond(w, r, handler, msg)
}

// audioContentType returns the declared media type, or sniffs it from the
// payload when the client sent none or a generic one.
func audioContentType(r *http.Request, audio []byte) string {
	declared, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(audio).String()
}

func (t *Transport) respond(w http.ResponseWriter, r *http.Request, handler transport.Handler, msg *message.Message) {
	result, err := handler(r.Context(), msg)
	if err != nil {
		slog.Error("handling instruction failed", "message_id", msg.ID, "error", err)
		http.Error(w, "handler error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// handleHistory serves GET /history.
//
// @Summary  Execution history, newest first
// @Tags     history
// @Produce  json
// @Success  200  {array}  history.Record
// @Router   /history [get]
func (t *Transport) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, t.console.History())
}

// handleStatus serves GET /status.
//
// @Summary  Accessibility service status
// @Tags     service
// @Produce  json
// @Success  200  {object}  message.ServiceStatus
// @Router   /status [get]
func (t *Transport) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, t.console.ServiceStatus())
}

// handleCheck serves POST /service/check.
//
// @Summary  Refresh the accessibility service status from the device
// @Tags     service
// @Produce  json
// @Success  200  {object}  message.ServiceStatus
// @Router   /service/check [post]
func (t *Transport) handleCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, t.console.CheckService(r.Context()))
}

// handleSettings serves POST /service/settings.
//
// @Summary  Open the accessibility settings screen on the device
// @Tags     service
// @Produce  json
// @Success  200  {object}  message.ServiceStatus
// @Router   /service/settings [post]
func (t *Transport) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, t.console.PromptEnable(r.Context()))
}

// handleFeed upgrades to a WebSocket and pushes every new history record as
// JSON until the client goes away.
func (t *Transport) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	records, cancel := t.console.Subscribe(16)
	defer cancel()

	// Reads only detect the client closing the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(rec); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func sourceOr(source, fallback string) string {
	if s := strings.TrimSpace(source); s != "" {
		return s
	}
	return fallback
}
