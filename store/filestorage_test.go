package store_test

import (
	"context"
	"net/url"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/impactlens/store"
)

func TestLocalFileStorageFileURL(t *testing.T) {
	dir := t.TempDir()
	var fs store.FileStorage = &store.LocalFileStorage{Dir: dir}

	u, err := fs.Put(t.Context(), "trailer.mp4", strings.NewReader("frames"))
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "file", parsed.Scheme)
	assert.True(t, strings.HasSuffix(parsed.Path, "-trailer.mp4"), parsed.Path)

	data, err := os.ReadFile(parsed.Path)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))
}

func TestLocalFileStorageBaseURL(t *testing.T) {
	fs := &store.LocalFileStorage{Dir: t.TempDir(), BaseURL: "https://cdn.example.org/assets/"}

	first, err := fs.Put(t.Context(), "../poster.png", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := fs.Put(t.Context(), "poster.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "https://cdn.example.org/assets/"), first)
	assert.Equal(t, "poster.png", path.Base(first)[37:])
	assert.NotEqual(t, first, second, "names are made unique")
	assert.NotContains(t, first, "..")
}

func TestLocalFileStorageRejects(t *testing.T) {
	fs := &store.LocalFileStorage{Dir: t.TempDir()}

	_, err := fs.Put(t.Context(), "  ", strings.NewReader("x"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = fs.Put(ctx, "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
