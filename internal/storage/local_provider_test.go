package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderSaveNestedObject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := NewLocalProvider(dir)
	require.NoError(t, err)

	err = p.Save(context.Background(), "exports/2026-08-29/stores-run-1.csv", []byte("name,address\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "exports", "2026-08-29", "stores-run-1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "name,address\n", string(data))
}

func TestNewLocalProviderRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocalProvider("")
	assert.Error(t, err)
}

func TestNoOpProviderSave(t *testing.T) {
	t.Parallel()

	var p NoOpProvider
	assert.NoError(t, p.Save(context.Background(), "anything", nil))
}
