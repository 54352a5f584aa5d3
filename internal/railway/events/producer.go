// Package events publishes booking events to Kafka.
package events

import "context"

type Producer interface {
	Publish(ctx context.Context, topic string, key string, value []byte) error
	Close() error
}

// Nop discards every message. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, []byte) error { return nil }

func (Nop) Close() error { return nil }
