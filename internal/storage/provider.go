// Package storage defines the interfaces for a blob storage provider.
// This abstraction allows the application to be independent of a specific storage
// implementation (e.g., Google Cloud Storage or the local filesystem).
package storage

import (
	"context"
)

// Provider defines the common interface for a blob storage provider.
// It abstracts the operation of saving crawl artifacts.
type Provider interface {
	// Save uploads data to a specified object path/key in the blob store.
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOpProvider is a storage provider that performs no operations.
// It is useful for testing or dry runs where artifacts are discarded.
type NoOpProvider struct{}

// Save for NoOpProvider does nothing and always returns nil.
func (n *NoOpProvider) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}
