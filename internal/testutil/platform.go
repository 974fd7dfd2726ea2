package testutil

import (
	"context"
	"fmt"
	"sync"

	"mathtutor/core"
)

// FakePlatform is a scripted in-memory core.PlatformClient. Tests configure
// assistant behavior through the Respond hook, inject transport failures via
// the Fail* fields, and force terminal run failures with QueueRunFailure.
// All state is mutex-guarded so concurrency tests can hammer it.
type FakePlatform struct {
	mu sync.Mutex

	agents     []core.AgentDescriptor
	threads    map[string][]core.Message // oldest first
	files      map[string][]byte
	nextAgent  int
	nextThread int

	runFailures []core.Run

	// Respond produces the assistant parts for a completed run given the
	// latest user prompt. Nil yields a single canned text part.
	Respond func(threadID, prompt string) []core.Part

	// Failure injection, checked before any state mutation.
	FailListAgents   error
	FailCreateAgent  error
	FailCreateThread error
	FailCreateMsg    error
	FailRun          error
	FailListMsgs     error
	FailDownload     error

	// FailDownloadTimes fails the first N downloads with a transient error
	// before succeeding, for retry coverage.
	FailDownloadTimes int

	// RunBlocks makes CreateAndAwaitRun block until its context expires and
	// return the context error, simulating a run that never reaches a
	// terminal state.
	RunBlocks bool

	// Call counters.
	ListAgentsCalls  int
	CreateAgentCalls int
	RunCalls         int
}

// NewFakePlatform returns an empty fake platform.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		threads: make(map[string][]core.Message),
		files:   make(map[string][]byte),
	}
}

// SeedAgent registers a pre-existing remote agent and returns its id.
func (f *FakePlatform) SeedAgent(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addAgentLocked(core.AgentDescriptor{Name: name}).RemoteID
}

// SeedFile registers downloadable file bytes.
func (f *FakePlatform) SeedFile(fileID string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[fileID] = data
}

// QueueRunFailure makes the next CreateAndAwaitRun terminate with the given
// status and cause instead of producing an assistant message.
func (f *FakePlatform) QueueRunFailure(status core.RunStatus, cause string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runFailures = append(f.runFailures, core.Run{Status: status, LastError: cause})
}

// Agents returns a snapshot of the remote agent list.
func (f *FakePlatform) Agents() []core.AgentDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.AgentDescriptor(nil), f.agents...)
}

// Messages returns a snapshot of a thread's messages, oldest first.
func (f *FakePlatform) Messages(threadID string) []core.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Message(nil), f.threads[threadID]...)
}

func (f *FakePlatform) addAgentLocked(desc core.AgentDescriptor) core.AgentDescriptor {
	f.nextAgent++
	desc.RemoteID = fmt.Sprintf("agent-%d", f.nextAgent)
	f.agents = append(f.agents, desc)
	return desc
}

// ListAgents implements core.PlatformClient.
func (f *FakePlatform) ListAgents(context.Context) ([]core.AgentDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListAgentsCalls++
	if f.FailListAgents != nil {
		return nil, f.FailListAgents
	}
	return append([]core.AgentDescriptor(nil), f.agents...), nil
}

// CreateAgent implements core.PlatformClient.
func (f *FakePlatform) CreateAgent(_ context.Context, desc core.AgentDescriptor) (core.AgentDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateAgentCalls++
	if f.FailCreateAgent != nil {
		return core.AgentDescriptor{}, f.FailCreateAgent
	}
	return f.addAgentLocked(desc), nil
}

// DeleteAgent implements core.PlatformClient.
func (f *FakePlatform) DeleteAgent(_ context.Context, agentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.agents {
		if a.RemoteID == agentID {
			f.agents = append(f.agents[:i], f.agents[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete agent %s: %w", agentID, core.ErrNotFound)
}

// CreateThread implements core.PlatformClient.
func (f *FakePlatform) CreateThread(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreateThread != nil {
		return "", f.FailCreateThread
	}
	f.nextThread++
	id := fmt.Sprintf("thread-%d", f.nextThread)
	f.threads[id] = nil
	return id, nil
}

// CreateMessage implements core.PlatformClient.
func (f *FakePlatform) CreateMessage(_ context.Context, threadID, role, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreateMsg != nil {
		return f.FailCreateMsg
	}
	msgs, ok := f.threads[threadID]
	if !ok {
		return fmt.Errorf("thread %s: %w", threadID, core.ErrNotFound)
	}
	f.threads[threadID] = append(msgs, core.Message{
		ID:       fmt.Sprintf("msg-%d", len(msgs)+1),
		ThreadID: threadID,
		Role:     role,
		Parts:    []core.Part{core.TextPart{Text: text}},
	})
	return nil
}

// CreateAndAwaitRun implements core.PlatformClient. A successful run appends
// an assistant message built by the Respond hook.
func (f *FakePlatform) CreateAndAwaitRun(ctx context.Context, threadID, agentID string) (core.Run, error) {
	f.mu.Lock()
	f.RunCalls++
	if f.RunBlocks {
		f.mu.Unlock()
		<-ctx.Done()
		return core.Run{}, ctx.Err()
	}
	defer f.mu.Unlock()
	if f.FailRun != nil {
		return core.Run{}, f.FailRun
	}
	if len(f.runFailures) > 0 {
		run := f.runFailures[0]
		f.runFailures = f.runFailures[1:]
		run.ID = fmt.Sprintf("run-%d", f.RunCalls)
		run.ThreadID = threadID
		return run, nil
	}

	msgs, ok := f.threads[threadID]
	if !ok {
		return core.Run{}, fmt.Errorf("thread %s: %w", threadID, core.ErrNotFound)
	}
	found := false
	for _, a := range f.agents {
		if a.RemoteID == agentID {
			found = true
			break
		}
	}
	if !found {
		return core.Run{
			ID:        fmt.Sprintf("run-%d", f.RunCalls),
			ThreadID:  threadID,
			Status:    core.RunFailed,
			LastError: fmt.Sprintf("No agent found with id %s", agentID),
		}, nil
	}

	var prompt string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			prompt = msgs[i].TextContent()
			break
		}
	}
	parts := []core.Part{core.TextPart{Text: "fake assistant reply"}}
	if f.Respond != nil {
		parts = f.Respond(threadID, prompt)
	}
	if parts != nil {
		f.threads[threadID] = append(msgs, core.Message{
			ID:       fmt.Sprintf("msg-%d", len(msgs)+1),
			ThreadID: threadID,
			Role:     core.RoleAssistant,
			Parts:    parts,
		})
	}
	return core.Run{ID: fmt.Sprintf("run-%d", f.RunCalls), ThreadID: threadID, Status: core.RunCompleted}, nil
}

// ListMessages implements core.PlatformClient, returning newest first.
func (f *FakePlatform) ListMessages(_ context.Context, threadID string) ([]core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailListMsgs != nil {
		return nil, f.FailListMsgs
	}
	msgs, ok := f.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, core.ErrNotFound)
	}
	out := make([]core.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

// DownloadFile implements core.PlatformClient.
func (f *FakePlatform) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDownload != nil {
		return nil, f.FailDownload
	}
	if f.FailDownloadTimes > 0 {
		f.FailDownloadTimes--
		return nil, fmt.Errorf("download %s: connection reset", fileID)
	}
	data, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", fileID, core.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

var _ core.PlatformClient = (*FakePlatform)(nil)
