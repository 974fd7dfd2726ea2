package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathtutor/core"
	"mathtutor/internal/testutil"
	"mathtutor/registry"
	"mathtutor/retry"
)

func newTestManager(platform core.PlatformClient, optFns ...func(o *Options)) (*Manager, *registry.Registry) {
	reg := registry.New(platform, core.AgentDescriptor{
		Name:  "math-tutor-agent",
		Model: "gpt-4o-mini",
		Tools: []string{core.ToolCodeInterpreter},
	}, func(o *registry.Options) {
		o.Retry = retry.Policy{MaxAttempts: 2, Retryable: core.Retryable, Sleep: func(context.Context, time.Duration) error { return nil }}
	})
	return NewManager(platform, reg, optFns...), reg
}

// stubExtractor returns a fixed URL per file id.
type stubExtractor struct{ calls []string }

func (s *stubExtractor) ExtractAndStore(_ context.Context, fileID string) string {
	s.calls = append(s.calls, fileID)
	return "https://blobs.example/tutor-images/" + fileID + ".png"
}

// failingExtractor simulates unrecoverable artifact loss.
type failingExtractor struct{}

func (failingExtractor) ExtractAndStore(context.Context, string) string { return "" }

func TestStartCreatesAgentAndThread(t *testing.T) {
	platform := testutil.NewFakePlatform()
	mgr, _ := newTestManager(platform)

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, threadID)
	assert.Equal(t, 1, platform.CreateAgentCalls)
	assert.Equal(t, 1, mgr.ActiveThreads())
}

func TestSendSimpleMathQuestion(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.Respond = func(_, prompt string) []core.Part {
		if strings.Contains(prompt, "2+2") {
			return []core.Part{core.TextPart{Text: "2+2 equals 4."}}
		}
		return []core.Part{core.TextPart{Text: "let's work through it"}}
	}
	mgr, _ := newTestManager(platform)

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)

	reply, err := mgr.Send(context.Background(), threadID, "what is 2+2?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "4")
	assert.Empty(t, reply.ImageURL)

	// User and assistant turns were appended in request order.
	msgs := platform.Messages(threadID)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
}

func TestSendWithVisualization(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.Respond = func(_, _ string) []core.Part {
		return []core.Part{
			core.TextPart{Text: "Here is the plot of y=sin(x):"},
			core.ImagePart{FileID: "file-sin"},
		}
	}
	ex := &stubExtractor{}
	mgr, _ := newTestManager(platform, func(o *Options) { o.Extractor = ex })

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)

	reply, err := mgr.Send(context.Background(), threadID, "plot y=sin(x)")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
	assert.Equal(t, "https://blobs.example/tutor-images/file-sin.png", reply.ImageURL)
	assert.Equal(t, []string{"file-sin"}, ex.calls)
}

func TestSendImageLossDegradesGracefully(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.Respond = func(_, _ string) []core.Part {
		return []core.Part{
			core.TextPart{Text: "plotted!"},
			core.ImagePart{FileID: "file-gone"},
		}
	}
	mgr, _ := newTestManager(platform, func(o *Options) { o.Extractor = failingExtractor{} })

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)

	reply, err := mgr.Send(context.Background(), threadID, "plot y=x^2")
	require.NoError(t, err, "text delivery must survive image loss")
	assert.Equal(t, "plotted!", reply.Text)
	assert.Empty(t, reply.ImageURL)
}

func TestSendUnknownThread(t *testing.T) {
	platform := testutil.NewFakePlatform()
	mgr, _ := newTestManager(platform)

	_, err := mgr.Send(context.Background(), "thread-never-issued", "hello")
	assert.ErrorIs(t, err, core.ErrUnknownThread)
	assert.Zero(t, platform.RunCalls, "no remote work for unknown threads")
}

func TestSendRunFailureSurfacedWithCause(t *testing.T) {
	platform := testutil.NewFakePlatform()
	mgr, _ := newTestManager(platform)

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)

	platform.QueueRunFailure(core.RunFailed, "rate limit exceeded")
	_, err = mgr.Send(context.Background(), threadID, "2+2?")
	var rf *core.RunFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, core.RunFailed, rf.Status)
	assert.Contains(t, rf.Cause, "rate limit")
	assert.Equal(t, 1, platform.RunCalls, "a failed run is not silently retried")
}

func TestSendStaleAgentInvalidatesRegistry(t *testing.T) {
	platform := testutil.NewFakePlatform()
	mgr, reg := newTestManager(platform)

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)
	listCallsBefore := platform.ListAgentsCalls

	platform.QueueRunFailure(core.RunFailed, "No agent found with id agent-1")
	_, err = mgr.Send(context.Background(), threadID, "2+2?")
	var rf *core.RunFailedError
	require.ErrorAs(t, err, &rf)

	_, cached := reg.Cached()
	assert.False(t, cached, "stale agent cause invalidates the cache")

	// The next ensure performs a fresh remote lookup instead of a cache hit.
	_, err = reg.EnsureAgent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, listCallsBefore+1, platform.ListAgentsCalls)

	// The thread survives the reset; the retried turn succeeds on it with
	// the freshly resolved agent.
	assert.Equal(t, 1, mgr.ActiveThreads())
	reply, err := mgr.Send(context.Background(), threadID, "2+2?")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
}

func TestSendRunTimeoutBoundsTheTurn(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.RunBlocks = true
	mgr, _ := newTestManager(platform, func(o *Options) { o.RunTimeout = 20 * time.Millisecond })

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)

	start := time.Now()
	_, err = mgr.Send(context.Background(), threadID, "2+2?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second, "a stuck run must not hang the turn")
}

func TestSendNoAssistantMessageFallsBack(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.Respond = func(_, _ string) []core.Part { return nil } // run completes silently
	mgr, _ := newTestManager(platform)

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)

	reply, err := mgr.Send(context.Background(), threadID, "2+2?")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply.Text)
}

func TestForgetAndResetLocal(t *testing.T) {
	platform := testutil.NewFakePlatform()
	mgr, _ := newTestManager(platform)

	a, err := mgr.Start(context.Background())
	require.NoError(t, err)
	_, err = mgr.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, mgr.ActiveThreads())

	mgr.Forget(a)
	assert.Equal(t, 1, mgr.ActiveThreads())
	_, err = mgr.Send(context.Background(), a, "hi")
	assert.ErrorIs(t, err, core.ErrUnknownThread)

	mgr.ResetLocal()
	assert.Zero(t, mgr.ActiveThreads())
}

func TestSendConversationContextAccumulates(t *testing.T) {
	platform := testutil.NewFakePlatform()
	mgr, _ := newTestManager(platform)

	threadID, err := mgr.Start(context.Background())
	require.NoError(t, err)

	_, err = mgr.Send(context.Background(), threadID, "my favorite number is 42")
	require.NoError(t, err)
	_, err = mgr.Send(context.Background(), threadID, "what is my favorite number?")
	require.NoError(t, err)

	msgs := platform.Messages(threadID)
	assert.Len(t, msgs, 4, "both turns accumulate on the same thread")
}
