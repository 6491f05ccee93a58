// Package queue defines the interface for publishing crawl-run
// notifications to a message queue.
package queue

import (
	"context"
)

// Provider abstracts the run-summary notification channel.
type Provider interface {
	// Publish sends one message payload to the configured topic.
	Publish(ctx context.Context, payload []byte) error

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOpProvider is a queue provider that performs no operations, used when
// no downstream consumer is configured.
type NoOpProvider struct{}

// Publish for NoOpProvider does nothing and returns nil.
func (n *NoOpProvider) Publish(_ context.Context, _ []byte) error { return nil }

// Close for NoOpProvider does nothing and returns nil.
func (n *NoOpProvider) Close() error { return nil }
