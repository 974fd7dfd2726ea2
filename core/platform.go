package core

import "context"

// AgentDescriptor describes a remotely hosted agent configuration. Name is the
// stable logical identifier chosen by the operator; RemoteID is assigned by
// the platform at creation time and is the handle used for runs and deletion.
type AgentDescriptor struct {
	RemoteID     string
	Name         string
	Model        string
	Instructions string
	Tools        []string // Tool identifiers, e.g. ToolCodeInterpreter
}

// ToolCodeInterpreter enables server-side code execution / visualization for
// an agent.
const ToolCodeInterpreter = "code_interpreter"

// HasTool reports whether the descriptor requests the named tool.
func (d AgentDescriptor) HasTool(name string) bool {
	for _, t := range d.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// RunStatus is the lifecycle state of a remote run. The only state machine in
// this backend: queued -> in_progress -> {completed, failed}. Cancelled and
// expired are vendor-reported terminal states treated as failures.
type RunStatus string

// Run lifecycle states.
const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
	RunExpired    RunStatus = "expired"
)

// Terminal reports whether the status will no longer change.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	}
	return false
}

// Succeeded reports whether the run reached terminal success. Only output of
// succeeded runs is trusted for reply extraction.
func (s RunStatus) Succeeded() bool { return s == RunCompleted }

// Run is the transient execution unit binding a thread to an agent. LastError
// carries the platform-stated cause when Status is a terminal failure.
type Run struct {
	ID        string
	ThreadID  string
	Status    RunStatus
	LastError string
}

// PlatformClient is the collaborator interface over the remote agent
// platform. Implementations wrap an authenticated vendor SDK or HTTP client;
// tests substitute scripted fakes.
//
// Contract:
//   - ListMessages returns messages newest first so callers can scan for the
//     most recent assistant turn without re-sorting.
//   - CreateAndAwaitRun blocks until the run reaches a terminal state or ctx
//     is done. A run that terminates unsuccessfully is returned with its
//     status and LastError rather than as a Go error; transport failures are
//     returned as errors.
//   - Reference errors (agent/thread/file ids no longer recognized) unwrap to
//     ErrNotFound; authentication failures unwrap to ErrNotAuthorized.
type PlatformClient interface {
	ListAgents(ctx context.Context) ([]AgentDescriptor, error)
	CreateAgent(ctx context.Context, desc AgentDescriptor) (AgentDescriptor, error)
	DeleteAgent(ctx context.Context, agentID string) error

	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, role, text string) error
	CreateAndAwaitRun(ctx context.Context, threadID, agentID string) (Run, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)

	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}
