package covers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough of a PNG for type detection.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func imageServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewCache(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "covers")

	cache, err := NewCache(cacheDir)
	require.NoError(t, err)
	assert.Equal(t, cacheDir, cache.CacheDir())

	_, err = os.Stat(cacheDir)
	assert.NoError(t, err, "cache directory was not created")
}

func TestGetCover_EmptyURL(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	path, err := cache.GetCover(context.Background(), "b1", "")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestGetCover_FetchAndCache(t *testing.T) {
	var hits atomic.Int32
	server := imageServer(t, &hits)
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path1, err := cache.GetCover(ctx, "b1", server.URL+"/cover")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(path1))
	_, err = os.Stat(path1)
	require.NoError(t, err)

	path2, err := cache.GetCover(ctx, "b1", server.URL+"/cover")
	require.NoError(t, err)
	assert.Equal(t, path1, path2)
	assert.Equal(t, int32(1), hits.Load(), "second request should use cache")
}

func TestGetCover_RejectsNonImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>not a cover</body></html>"))
	}))
	defer server.Close()

	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	_, err = cache.GetCover(context.Background(), "b1", server.URL)
	assert.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(cache.CacheDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected download must not be kept")
}

func TestGetCover_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	_, err = cache.GetCover(context.Background(), "b1", server.URL+"/notfound.jpg")
	assert.Error(t, err)
}

func TestInvalidateCover(t *testing.T) {
	server := imageServer(t, nil)
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, err := cache.GetCover(ctx, "b1", server.URL+"/cover")
	require.NoError(t, err)
	other, err := cache.GetCover(ctx, "b2", server.URL+"/cover")
	require.NoError(t, err)

	require.NoError(t, cache.InvalidateCover("b1"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cached file should be deleted after invalidation")
	_, err = os.Stat(other)
	assert.NoError(t, err, "other books keep their covers")
}

func TestCoverFilename(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	name1 := cache.coverFilename("b1", "https://example.com/cover.jpg")
	assert.Equal(t, name1, cache.coverFilename("b1", "https://example.com/cover.jpg"))
	assert.NotEqual(t, name1, cache.coverFilename("b1", "https://example.com/other.jpg"))
	assert.NotEqual(t, name1, cache.coverFilename("b2", "https://example.com/cover.jpg"))
	assert.NotContains(t, cache.coverFilename("../../etc", "x"), "..")
}
