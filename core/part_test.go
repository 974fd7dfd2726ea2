package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageTextContent(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "The answer is "},
			ImagePart{FileID: "file-1"},
			TextPart{Text: "4."},
			UnknownPart{Kind: "refusal"},
		},
	}
	assert.Equal(t, "The answer is 4.", msg.TextContent())
}

func TestMessageFirstImage(t *testing.T) {
	msg := Message{Parts: []Part{
		TextPart{Text: "see plot"},
		ImagePart{FileID: "file-a"},
		ImagePart{FileID: "file-b"},
	}}
	img, ok := msg.FirstImage()
	assert.True(t, ok)
	assert.Equal(t, "file-a", img.FileID)

	_, ok = Message{Parts: []Part{TextPart{Text: "no image"}}}.FirstImage()
	assert.False(t, ok)
}

func TestRunStatusTerminal(t *testing.T) {
	assert.False(t, RunQueued.Terminal())
	assert.False(t, RunInProgress.Terminal())
	assert.True(t, RunCompleted.Terminal())
	assert.True(t, RunFailed.Terminal())
	assert.True(t, RunCancelled.Terminal())
	assert.True(t, RunExpired.Terminal())
	assert.True(t, RunCompleted.Succeeded())
	assert.False(t, RunFailed.Succeeded())
}

func TestIsStaleAgent(t *testing.T) {
	assert.False(t, IsStaleAgent(nil))
	assert.False(t, IsStaleAgent(errors.New("connection reset")))
	assert.True(t, IsStaleAgent(fmt.Errorf("run agent: %w", ErrNotFound)))
	assert.True(t, IsStaleAgent(&RunFailedError{Status: RunFailed, Cause: "No agent found with id asst_123"}))
	assert.False(t, IsStaleAgent(&RunFailedError{Status: RunFailed, Cause: "rate limit exceeded"}))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(errors.New("i/o timeout")))
	assert.False(t, Retryable(fmt.Errorf("create agent: %w", ErrNotAuthorized)))
	assert.False(t, Retryable(fmt.Errorf("download: %w", ErrNotFound)))
}
