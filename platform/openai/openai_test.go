package openai

import (
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"

	"mathtutor/core"
)

func TestMapErrClassification(t *testing.T) {
	notFound := mapErr("run", &openai.Error{StatusCode: 404})
	assert.ErrorIs(t, notFound, core.ErrNotFound)
	assert.True(t, core.IsStaleAgent(notFound))

	unauthorized := mapErr("list agents", &openai.Error{StatusCode: 401})
	assert.ErrorIs(t, unauthorized, core.ErrNotAuthorized)
	assert.False(t, core.Retryable(unauthorized))

	forbidden := mapErr("list agents", &openai.Error{StatusCode: 403})
	assert.ErrorIs(t, forbidden, core.ErrNotAuthorized)

	transient := mapErr("create thread", errors.New("i/o timeout"))
	assert.False(t, errors.Is(transient, core.ErrNotFound))
	assert.True(t, core.Retryable(transient))
	assert.Contains(t, transient.Error(), "create thread")
}
