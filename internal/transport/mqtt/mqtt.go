// Package mqtt implements the MQTT transport for voxtap.
//
// Speech capture devices publish transcripts to a topic; each payload is
// either a JSON object or the plain transcript text. When a reply topic is
// configured, the result of every message is published there as JSON.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nadzzz/voxtap/internal/config"
	"github.com/nadzzz/voxtap/internal/message"
	"github.com/nadzzz/voxtap/internal/transport"
)

const (
	qos            = 1
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Transport implements transport.Transport over MQTT.
type Transport struct {
	cfg    config.MQTTConfig
	client paho.Client
}

// New creates a new MQTT transport.
func New(cfg config.MQTTConfig) *Transport {
	return &Transport{cfg: cfg}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mqtt" }

// Listen connects to the MQTT broker and subscribes to the transcript topic.
// It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	clientID := t.cfg.ClientID
	if clientID == "" {
		clientID = "voxtap"
	}

	opts := paho.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOrderMatters(false)

	// Subscriptions are restored on every (re)connect.
	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(t.cfg.Topic, qos, func(_ paho.Client, m paho.Message) {
			t.handle(ctx, handler, m)
		})
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			slog.Error("mqtt subscribe failed", "topic", t.cfg.Topic, "error", token.Error())
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	})

	t.client = paho.NewClient(opts)
	token := t.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect %s: timed out", t.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", t.cfg.Broker, err)
	}

	slog.Info("mqtt transport listening", "broker", t.cfg.Broker, "topic", t.cfg.Topic)
	<-ctx.Done()
	slog.Info("mqtt transport shutting down")
	return nil
}

// Close disconnects from the MQTT broker.
func (t *Transport) Close() error {
	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(250)
	}
	return nil
}

func (t *Transport) handle(ctx context.Context, handler transport.Handler, m paho.Message) {
	msg, err := decodeTranscript(m.Payload())
	if err != nil {
		slog.Warn("mqtt payload rejected", "topic", m.Topic(), "error", err)
		return
	}
	if msg.Source == "" {
		msg.Source = "mqtt:" + m.Topic()
	}

	result, err := handler(ctx, msg)
	if err != nil {
		slog.Error("mqtt handler error", "id", msg.ID, "error", err)
		return
	}
	if t.cfg.ReplyTopic == "" {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Error("mqtt encode result", "id", msg.ID, "error", err)
		return
	}
	token := t.client.Publish(t.cfg.ReplyTopic, qos, false, data)
	if !token.WaitTimeout(publishTimeout) {
		slog.Warn("mqtt publish timed out", "topic", t.cfg.ReplyTopic)
		return
	}
	if err := token.Error(); err != nil {
		slog.Error("mqtt publish failed", "topic", t.cfg.ReplyTopic, "error", err)
	}
}

// transcriptPayload is the JSON form of a published transcript.
type transcriptPayload struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

var errNotTranscript = errors.New("payload is neither a transcript object nor text")

// decodeTranscript turns a payload into a message. A payload starting with
// '{' must be a transcript object; anything else is taken as the text itself.
func decodeTranscript(payload []byte) (*message.Message, error) {
	trimmed := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(trimmed, "{") {
		return message.New("", string(payload)), nil
	}

	var p transcriptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotTranscript, err)
	}
	msg := message.New(p.Source, p.Text)
	msg.Language = p.Language
	msg.Confidence = p.Confidence
	return msg, nil
}
