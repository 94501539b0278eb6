// Package whisper implements speech.Recognizer against a self-hosted
// Whisper-compatible transcription endpoint.
//
// Two flavors are supported:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
package whisper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/nadzzz/voxtap/internal/config"
	"github.com/nadzzz/voxtap/internal/speech"
)

// Recognizer transcribes audio with a Whisper endpoint.
type Recognizer struct {
	endpoint        string
	flavor          string
	model           string
	defaultLanguage string
	vadFilter       bool
	client          *resty.Client
}

// New creates a Whisper recognizer from config.
func New(cfg config.SpeechConfig) *Recognizer {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Recognizer{
		endpoint:        cfg.Endpoint,
		flavor:          flavor,
		model:           cfg.Model,
		defaultLanguage: cfg.Language,
		vadFilter:       cfg.VADFilter,
		client:          resty.New(),
	}
}

// Name returns the backend identifier.
func (r *Recognizer) Name() string { return "whisper" }

// verboseJSON is the verbose_json response shared by both flavors.
type verboseJSON struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Transcribe sends audio to the endpoint and returns the trimmed transcript.
func (r *Recognizer) Transcribe(ctx context.Context, audio []byte, contentType string, opts speech.Options) (*speech.Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio")
	}

	lang := opts.Language
	if lang == "" {
		lang = r.defaultLanguage
	}

	var out verboseJSON
	req := r.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetFileReader(r.fileField(), "audio"+extFromContentType(contentType), bytes.NewReader(audio))

	switch r.flavor {
	case "asr":
		req.SetQueryParam("task", "transcribe").
			SetQueryParam("output", "json").
			SetQueryParam("encode", "true")
		if lang != "" {
			req.SetQueryParam("language", lang)
		}
		if opts.Prompt != "" {
			req.SetQueryParam("initial_prompt", opts.Prompt)
		}
		if r.vadFilter {
			req.SetQueryParam("vad_filter", "true")
		}
	default:
		form := map[string]string{"response_format": "verbose_json"}
		if r.model != "" {
			form["model"] = r.model
		}
		if lang != "" {
			form["language"] = lang
		}
		if opts.Prompt != "" {
			form["prompt"] = opts.Prompt
		}
		req.SetFormData(form)
	}

	resp, err := req.Post(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s transcription request: %w", r.flavor, err)
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > 2048 {
			body = body[:2048]
		}
		return nil, fmt.Errorf("%s transcription failed (status %d): %s", r.flavor, resp.StatusCode(), body)
	}

	result := &speech.Result{
		Text:       strings.TrimSpace(out.Text),
		Language:   out.Language,
		Confidence: confidence(out),
	}
	slog.Debug("transcription complete", "flavor", r.flavor, "text_length", len(result.Text), "language", result.Language)
	return result, nil
}

// Close releases idle connections.
func (r *Recognizer) Close() error {
	r.client.GetClient().CloseIdleConnections()
	return nil
}

func (r *Recognizer) fileField() string {
	if r.flavor == "asr" {
		return "audio_file"
	}
	return "file"
}

// confidence maps the mean segment log-probability to [0, 1].
func confidence(v verboseJSON) float64 {
	if len(v.Segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range v.Segments {
		sum += s.AvgLogprob
	}
	return math.Min(1, math.Exp(sum/float64(len(v.Segments))))
}

func extFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	default:
		return ".wav"
	}
}
