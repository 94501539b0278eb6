// Package transport defines the interface for pluggable instruction intakes.
//
// Each transport (gRPC, HTTP/WebSocket, MQTT) implements this interface and
// hands every incoming instruction to the coordinator through a Handler. The
// coordinator doesn't care how instructions arrive.
package transport

import (
	"context"

	"github.com/nadzzz/voxtap/internal/message"
)

// Handler processes an incoming message and returns a result.
// The coordinator provides this handler to each transport.
type Handler func(ctx context.Context, msg *message.Message) (*message.Result, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mqtt").
	Name() string

	// Listen starts accepting incoming messages and passes them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
