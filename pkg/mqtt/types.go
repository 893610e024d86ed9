package mqtt

import (
	"context"
)

// MessageHandler processes one received message. It runs on its own
// goroutine with a context bounded by ClientConfig.HandlerTimeout.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the small MQTT surface roverhub needs on top of autopaho.
type Client interface {
	// Start connects in the background and returns immediately.
	Start(ctx context.Context) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for a topic filter. Subscriptions are
	// restored automatically after a reconnect.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	Unsubscribe(ctx context.Context, topic string) error

	// AwaitConnection blocks until connected or ctx is done.
	AwaitConnection(ctx context.Context) error

	IsConnected() bool
}
