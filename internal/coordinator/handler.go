package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nadzzz/voxtap/internal/message"
	"github.com/nadzzz/voxtap/internal/speech"
)

// ErrSpeechDisabled is returned for audio messages when no recognizer is set.
var ErrSpeechDisabled = errors.New("speech recognition is not configured")

// Handle processes a single message: transcribe audio if present, then
// submit the text. Rejections are reported in the result, not as an error.
// This function is passed as the transport.Handler to each transport.
func (c *Coordinator) Handle(ctx context.Context, msg *message.Message) (*message.Result, error) {
	start := time.Now()
	logger := slog.With("message_id", msg.ID, "source", msg.Source)

	result := &message.Result{MessageID: msg.ID}

	text := msg.Text
	if msg.HasAudio() {
		if c.recognizer == nil {
			result.Rejection = ErrSpeechDisabled.Error()
			return result, nil
		}
		logger.Debug("transcribing audio", "content_type", msg.ContentType, "bytes", len(msg.Audio))
		res, err := c.recognizer.Transcribe(ctx, msg.Audio, msg.ContentType, speech.Options{
			Language: msg.Language,
			Prompt:   speech.CommandPrompt,
		})
		if err != nil {
			result.Rejection = fmt.Sprintf("transcription failed: %v", err)
			logger.Error("transcription failed", "error", err)
			return result, nil
		}
		text = res.Text
		result.Transcript = res.Text
		logger.Info("transcription complete", "text_length", len(res.Text), "confidence", res.Confidence)
	} else if msg.Confidence > 0 {
		logger.Debug("speech transcript received", "confidence", msg.Confidence)
	}

	rec, err := c.Submit(ctx, text)
	if err != nil {
		result.Rejection = err.Error()
		logger.Info("instruction rejected", "error", err)
		return result, nil
	}

	result.Accepted = true
	result.Record = &rec
	logger.Info("message handled", "duration", time.Since(start), "success", rec.Success)
	return result, nil
}

// ServiceStatus reports automation readiness without touching the backend.
func (c *Coordinator) ServiceStatus() message.ServiceStatus {
	return message.ServiceStatus{
		Platform:  c.gate.Platform(),
		Supported: c.gate.Supported(),
		Status:    c.gate.Status().String(),
		Message:   c.gate.Message(),
		Busy:      c.Busy(),
	}
}

// CheckService refreshes the accessibility service status.
func (c *Coordinator) CheckService(ctx context.Context) message.ServiceStatus {
	if _, err := c.gate.CheckStatus(ctx); err != nil {
		slog.Warn("service check failed", "error", err)
	}
	return c.ServiceStatus()
}

// PromptEnable opens the accessibility settings on the device.
func (c *Coordinator) PromptEnable(ctx context.Context) message.ServiceStatus {
	c.gate.PromptEnable(ctx)
	return c.ServiceStatus()
}
