package artifact

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"mathtutor/core"
	"mathtutor/logging"
	"mathtutor/retry"
)

// ImageContentType is the content type assigned to extracted images. The code
// interpreter tool emits PNG visualizations.
const ImageContentType = "image/png"

// BlobName derives the deterministic, collision-resistant storage name for a
// platform file id. Stable naming makes repeated extraction of the same file
// idempotent under the store's overwrite-on-write semantics.
func BlobName(fileID string) string { return fileID + ".png" }

// Options configure an Extractor.
type Options struct {
	// Retry wraps the download and upload calls (both network-bound).
	Retry retry.Policy
	// Logger defaults to a NoOpLogger when nil.
	Logger logging.Logger
}

// Extractor downloads image artifacts from the agent platform and persists
// them to a blob store, producing an addressable URL.
//
// Extraction failures degrade the response rather than fail it: callers
// receive an empty URL and keep the reply text, so image delivery and text
// delivery stay in independent failure domains.
type Extractor struct {
	platform core.PlatformClient
	store    core.BlobStore
	opts     Options
}

// NewExtractor creates an Extractor over the given platform and store.
func NewExtractor(platform core.PlatformClient, store core.BlobStore, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Retry: retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2, Retryable: core.Retryable},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Extractor{platform: platform, store: store, opts: opts}
}

// ExtractAndStore downloads the file behind fileID and uploads it under its
// deterministic blob name, returning the resulting URL. An empty string is
// returned on unrecoverable failure; the cause is logged, never raised.
func (e *Extractor) ExtractAndStore(ctx context.Context, fileID string) string {
	if e.store == nil {
		e.opts.Logger.Warn("no blob store configured, dropping image artifact", "file_id", fileID)
		return ""
	}

	data, err := retry.Do(ctx, e.opts.Retry, func(ctx context.Context) ([]byte, error) {
		return e.platform.DownloadFile(ctx, fileID)
	})
	if err != nil {
		e.opts.Logger.Error("artifact download failed", "file_id", fileID, "error", err)
		return ""
	}
	data = NormalizePayload(data)

	name := BlobName(fileID)
	url, err := retry.Do(ctx, e.opts.Retry, func(ctx context.Context) (string, error) {
		return e.store.Upload(ctx, name, data, ImageContentType)
	})
	if err != nil {
		e.opts.Logger.Error("artifact upload failed", "file_id", fileID, "blob", name, "error", err)
		return ""
	}

	e.opts.Logger.Info("artifact stored", "file_id", fileID, "blob", name, "bytes", len(data))
	return url
}

// payloadWrapper is the envelope some transports put around file downloads.
type payloadWrapper struct {
	Content string `json:"content"`
}

// NormalizePayload unwraps download results that arrive as a JSON envelope
// exposing a base64 content field instead of raw bytes. Raw image bytes (or
// anything that does not parse as the envelope) pass through unchanged, so
// the caller-visible output is always the image byte sequence regardless of
// transport shape.
func NormalizePayload(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return data
	}
	var w payloadWrapper
	if err := json.Unmarshal(data, &w); err != nil || w.Content == "" {
		return data
	}
	decoded, err := base64.StdEncoding.DecodeString(w.Content)
	if err != nil {
		return data
	}
	return decoded
}
