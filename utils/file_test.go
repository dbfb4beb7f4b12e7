package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), "http://localhost:5200/uploads/")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "results/t1/shot.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5200/uploads/results/t1/shot.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "uploads", "results", "t1", "shot.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://cdn")
	require.NoError(t, err)

	for _, key := range []string{"../secret.png", "a/../../b.png", "/etc/passwd", ""} {
		_, err := store.Upload(context.Background(), key, strings.NewReader("x"), "image/png")
		assert.Error(t, err, key)
	}
}
