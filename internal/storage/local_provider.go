package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalProvider writes artifacts under a base directory on the local
// filesystem. The default for single-machine crawl runs.
type LocalProvider struct {
	BaseDir string
}

// NewLocalProvider ensures the base directory exists.
func NewLocalProvider(baseDir string) (*LocalProvider, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage: base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", baseDir, err)
	}
	return &LocalProvider{BaseDir: baseDir}, nil
}

// Save writes the object under BaseDir, creating parent directories for
// nested object names.
func (l *LocalProvider) Save(_ context.Context, objectName string, data []byte) error {
	path := filepath.Join(l.BaseDir, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", objectName, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", objectName, err)
	}
	return nil
}
