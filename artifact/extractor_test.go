package artifact

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathtutor/internal/testutil"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}

func TestExtractAndStoreHappyPath(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.SeedFile("file-abc", pngBytes)
	store := NewInMemoryStore("tutor-images")

	ex := NewExtractor(platform, store)
	url := ex.ExtractAndStore(context.Background(), "file-abc")

	assert.Equal(t, "memory://tutor-images/file-abc.png", url)
	data, contentType, err := store.Get("file-abc.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, ImageContentType, contentType)
}

func TestExtractAndStoreIdempotentNaming(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.SeedFile("file-abc", pngBytes)
	store := NewInMemoryStore("tutor-images")
	ex := NewExtractor(platform, store)

	first := ex.ExtractAndStore(context.Background(), "file-abc")
	second := ex.ExtractAndStore(context.Background(), "file-abc")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len(), "same file id maps onto one blob")
}

func TestExtractAndStoreDownloadFailureReturnsEmpty(t *testing.T) {
	platform := testutil.NewFakePlatform()
	store := NewInMemoryStore("tutor-images")
	ex := NewExtractor(platform, store)

	// Unknown file id: the platform reports not-found, which is not retried.
	url := ex.ExtractAndStore(context.Background(), "file-missing")

	assert.Empty(t, url)
	assert.Zero(t, store.Len())
}

func TestExtractAndStoreNoStoreConfigured(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.SeedFile("file-abc", pngBytes)
	ex := NewExtractor(platform, nil)

	assert.Empty(t, ex.ExtractAndStore(context.Background(), "file-abc"))
}

func TestNewExtractorDefaultBackoffIsNonZero(t *testing.T) {
	ex := NewExtractor(testutil.NewFakePlatform(), NewInMemoryStore("tutor-images"))

	// Transient failures must not be retried in a tight loop.
	assert.Greater(t, ex.opts.Retry.Delay(1), time.Duration(0))
}

func TestExtractAndStoreRetriesTransientDownload(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.SeedFile("file-abc", pngBytes)
	platform.FailDownloadTimes = 2

	store := NewInMemoryStore("tutor-images")
	ex := NewExtractor(platform, store, func(o *Options) {
		o.Retry.MaxAttempts = 3
		o.Retry.Sleep = func(context.Context, time.Duration) error { return nil }
	})

	url := ex.ExtractAndStore(context.Background(), "file-abc")
	assert.Equal(t, "memory://tutor-images/file-abc.png", url)
}

func TestExtractAndStoreUploadFailureReturnsEmpty(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.SeedFile("file-abc", pngBytes)

	ex := NewExtractor(platform, failingStore{}, func(o *Options) {
		o.Retry.MaxAttempts = 2
		o.Retry.Sleep = func(context.Context, time.Duration) error { return nil }
	})

	assert.Empty(t, ex.ExtractAndStore(context.Background(), "file-abc"))
}

type failingStore struct{}

func (failingStore) Ensure(context.Context) error { return nil }
func (failingStore) Upload(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("storage unavailable")
}

func TestNormalizePayload(t *testing.T) {
	// Raw bytes pass through untouched.
	assert.Equal(t, pngBytes, NormalizePayload(pngBytes))
	assert.Empty(t, NormalizePayload(nil))

	// JSON envelopes exposing a base64 content field are unwrapped.
	wrapped := []byte(`{"content":"` + base64.StdEncoding.EncodeToString(pngBytes) + `"}`)
	assert.Equal(t, pngBytes, NormalizePayload(wrapped))

	// JSON that is not the envelope shape passes through unchanged.
	other := []byte(`{"detail":"no content here"}`)
	assert.Equal(t, other, NormalizePayload(other))

	// Invalid base64 in the content field passes through unchanged.
	bad := []byte(`{"content":"not-base64!!"}`)
	assert.Equal(t, bad, NormalizePayload(bad))
}
