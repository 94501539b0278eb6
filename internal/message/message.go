// Package message defines the types exchanged between transports and the
// execution coordinator.
package message

import (
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/voxtap/internal/history"
)

// Message is one candidate instruction arriving from any transport.
type Message struct {
	// ID is a unique identifier for this message (UUID).
	ID string `json:"id"`

	// Source identifies the sender (e.g., "phone-alice", "mqtt:kitchen-mic").
	Source string `json:"source"`

	// Text is the instruction, typed or already transcribed.
	Text string `json:"text,omitempty"`

	// Audio is a raw recording to transcribe. Nil for text instructions.
	Audio []byte `json:"audio,omitempty"`

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string `json:"content_type,omitempty"`

	// Language is an ISO-639-1 hint for transcription.
	Language string `json:"language,omitempty"`

	// Confidence is the recognizer's confidence for Text when it came from
	// speech. Carried for logging only.
	Confidence float64 `json:"confidence,omitempty"`

	// Timestamp is when the message was received.
	Timestamp time.Time `json:"timestamp"`
}

// New creates a text message with a fresh ID.
func New(source, text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Source:    source,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewAudio creates an audio message with a fresh ID.
func NewAudio(source string, audio []byte, contentType string) *Message {
	return &Message{
		ID:          uuid.NewString(),
		Source:      source,
		Audio:       audio,
		ContentType: contentType,
		Timestamp:   time.Now(),
	}
}

// HasAudio returns true if the message contains an audio payload.
func (m *Message) HasAudio() bool {
	return len(m.Audio) > 0
}

// Result is what the sender gets back for a message.
type Result struct {
	// MessageID is the original message ID.
	MessageID string `json:"message_id"`

	// Transcript is the text produced by transcription (empty for text input).
	Transcript string `json:"transcript,omitempty"`

	// Accepted is true when the instruction was executed and recorded.
	Accepted bool `json:"accepted"`

	// Rejection explains why the instruction was not executed (empty,
	// duplicate, busy, platform unsupported, service disabled, transcription
	// failure).
	Rejection string `json:"rejection,omitempty"`

	// Record is the history entry for an accepted instruction.
	Record *history.Record `json:"record,omitempty"`
}

// ServiceStatus is the automation readiness shown to the presentation layer.
type ServiceStatus struct {
	Platform  string `json:"platform"`
	Supported bool   `json:"supported"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Busy      bool   `json:"busy"`
}
