package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathtutor/core"
)

// Interface compliance (compile-time assertion)
var _ core.BlobStore = (*InMemoryStore)(nil)

func TestInMemoryStoreUploadOverwrites(t *testing.T) {
	store := NewInMemoryStore("bucket")

	url1, err := store.Upload(context.Background(), "a.png", []byte{1}, "image/png")
	require.NoError(t, err)
	url2, err := store.Upload(context.Background(), "a.png", []byte{2, 3}, "image/png")
	require.NoError(t, err)

	assert.Equal(t, url1, url2, "URL is stable per blob name")
	data, _, err := store.Get("a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, data)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStoreGetMissing(t *testing.T) {
	store := NewInMemoryStore("bucket")
	_, _, err := store.Get("nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreCopiesData(t *testing.T) {
	store := NewInMemoryStore("bucket")
	src := []byte{1, 2, 3}
	_, err := store.Upload(context.Background(), "a.png", src, "image/png")
	require.NoError(t, err)

	src[0] = 9
	data, _, err := store.Get("a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}
