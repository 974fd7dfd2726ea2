// Package conversation drives the request/response cycle with the remote
// agent platform: it ensures the agent exists, creates threads, posts user
// messages, awaits runs, extracts the assistant reply and hands image
// references to the artifact extractor.
package conversation

import (
	"context"
	"fmt"
	"time"

	"mathtutor/core"
	"mathtutor/logging"
	"mathtutor/registry"
)

// FallbackReply is returned when a completed run produced no assistant
// message, so callers never see an empty reply.
const FallbackReply = "I wasn't able to produce an answer for that. Please try rephrasing your question."

// Reply is the outcome of one conversational turn. ImageURL is empty when the
// turn produced no image or when image extraction failed; only Text is
// guaranteed.
type Reply struct {
	Text     string
	ImageURL string
}

// Extractor persists a platform image file and returns its URL, or empty on
// failure. Kept as a local interface so image loss stays a degraded (not
// failed) response and tests can substitute stubs.
type Extractor interface {
	ExtractAndStore(ctx context.Context, fileID string) string
}

// Options configure a Manager.
type Options struct {
	// RunTimeout caps the run-and-await step, the one long-latency blocking
	// operation per turn.
	RunTimeout time.Duration
	// Extractor handles image parts. Nil disables image delivery.
	Extractor Extractor
	// Logger defaults to a NoOpLogger when nil.
	Logger logging.Logger
}

// Manager orchestrates conversation threads against one remote agent. Threads
// are independent; within a thread, Send calls are serialized by a per-thread
// mutex so callers get request-ordered message append without external
// discipline.
type Manager struct {
	platform core.PlatformClient
	registry *registry.Registry
	opts     Options
	threads  *threadRegistry
}

// NewManager creates a Manager bound to the given platform and agent
// registry.
func NewManager(platform core.PlatformClient, reg *registry.Registry, optFns ...func(o *Options)) *Manager {
	opts := Options{RunTimeout: 60 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Manager{platform: platform, registry: reg, opts: opts, threads: newThreadRegistry()}
}

// Start ensures the remote agent exists, creates a new conversation thread
// and returns its id. Local bookkeeping is advisory; the remote thread id is
// authoritative.
func (m *Manager) Start(ctx context.Context) (string, error) {
	if _, err := m.registry.EnsureAgent(ctx); err != nil {
		return "", fmt.Errorf("ensure agent: %w", err)
	}
	threadID, err := m.platform.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	m.threads.add(threadID)
	m.opts.Logger.Info("conversation started", "thread_id", threadID)
	return threadID, nil
}

// Send posts userText to the thread, runs the agent and returns the latest
// assistant reply. A failed run is surfaced, not silently retried; when its
// cause indicates the cached agent reference went stale, the registry cache
// is invalidated first so the next attempt re-resolves or recreates the
// agent. Image extraction failures degrade the reply instead of failing it.
func (m *Manager) Send(ctx context.Context, threadID, userText string) (Reply, error) {
	rec, ok := m.threads.get(threadID)
	if !ok {
		return Reply{}, fmt.Errorf("thread %q: %w", threadID, core.ErrUnknownThread)
	}
	rec.sendMu.Lock()
	defer rec.sendMu.Unlock()

	agentID, err := m.registry.EnsureAgent(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("ensure agent: %w", err)
	}

	if err := m.platform.CreateMessage(ctx, threadID, core.RoleUser, userText); err != nil {
		if core.IsStaleAgent(err) {
			// The platform no longer knows this thread.
			m.threads.remove(threadID)
			return Reply{}, fmt.Errorf("thread %q: %w", threadID, core.ErrUnknownThread)
		}
		return Reply{}, fmt.Errorf("append user message: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, m.opts.RunTimeout)
	defer cancel()
	run, err := m.platform.CreateAndAwaitRun(runCtx, threadID, agentID)
	if err != nil {
		return Reply{}, fmt.Errorf("run agent: %w", err)
	}
	if !run.Status.Succeeded() {
		failure := &core.RunFailedError{Status: run.Status, Cause: run.LastError}
		if core.IsStaleAgent(failure) {
			// Only the agent reference is invalidated. Remote threads stay
			// valid across agent recreation, so local thread bookkeeping is
			// kept and the retried turn binds the freshly resolved agent on
			// the same thread.
			m.opts.Logger.Warn("cached agent reference is stale, invalidating", "agent_id", agentID, "cause", run.LastError)
			m.registry.Reset()
		}
		return Reply{}, failure
	}

	messages, err := m.platform.ListMessages(ctx, threadID)
	if err != nil {
		return Reply{}, fmt.Errorf("list messages: %w", err)
	}

	// Messages arrive newest first; the first assistant entry is the turn's
	// reply.
	for _, msg := range messages {
		if msg.Role != core.RoleAssistant {
			continue
		}
		reply := Reply{Text: msg.TextContent()}
		if img, ok := msg.FirstImage(); ok && m.opts.Extractor != nil {
			reply.ImageURL = m.opts.Extractor.ExtractAndStore(ctx, img.FileID)
		}
		return reply, nil
	}

	m.opts.Logger.Warn("run completed without an assistant message", "thread_id", threadID, "run_id", run.ID)
	return Reply{Text: FallbackReply}, nil
}

// Forget drops the local record of a thread. The remote thread is left
// untouched.
func (m *Manager) Forget(threadID string) { m.threads.remove(threadID) }

// ResetLocal clears all local thread bookkeeping, typically together with a
// registry reset when the remote agent is torn down.
func (m *Manager) ResetLocal() { m.threads.clear() }

// ActiveThreads reports the number of locally tracked threads.
func (m *Manager) ActiveThreads() int { return m.threads.size() }
