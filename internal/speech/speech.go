// Package speech defines the interface for turning recorded audio into
// instruction text.
//
// Speech capture itself happens on the device. voxtap only consumes its
// output: either a finished transcript (over MQTT or HTTP) or raw audio that
// a Recognizer transcribes.
package speech

import "context"

// Options controls transcription behavior.
type Options struct {
	// Language is the ISO-639-1 code (e.g., "en") to guide transcription.
	Language string

	// Prompt provides context to improve recognition of command keywords.
	Prompt string
}

// Result is one transcription.
type Result struct {
	Text     string
	Language string

	// Confidence is in [0, 1]; zero when the recognizer does not report one.
	Confidence float64
}

// Recognizer converts audio bytes to text.
type Recognizer interface {
	// Name returns the backend identifier (e.g., "whisper").
	Name() string

	// Transcribe converts audio bytes to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts Options) (*Result, error)

	// Close releases any resources held by the recognizer.
	Close() error
}

// CommandPrompt biases recognition toward the instruction vocabulary.
const CommandPrompt = "open, launch, tap, swipe, to, insert, paste, com.example.app, 100,200"
