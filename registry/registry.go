// Package registry owns the remote agent identity for this backend: one
// logical agent name maps onto one platform-side agent, looked up by name and
// created on demand, with the resolved id cached under a freshness window so
// steady-state requests avoid a full remote list scan.
package registry

import (
	"context"
	"sync"
	"time"

	"mathtutor/core"
	"mathtutor/logging"
	"mathtutor/retry"
)

// Options configure a Registry.
type Options struct {
	// TTL is the freshness window of the cached agent id. Within it,
	// EnsureAgent answers from cache without any remote call.
	TTL time.Duration
	// Retry wraps the remote list and create calls.
	Retry retry.Policy
	// Logger defaults to a NoOpLogger when nil.
	Logger logging.Logger
	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Registry resolves and caches the remote agent id for a configured logical
// agent. It is safe for concurrent use: the cache and the remote
// lookup-or-create step share one mutex, so concurrent cold starts in a
// single process produce at most one remote creation. Replicas racing across
// processes can still each create an agent; lookup-before-create makes every
// later resolution converge on the first match by name.
type Registry struct {
	platform core.PlatformClient
	desc     core.AgentDescriptor
	opts     Options

	mu        sync.Mutex
	cachedID  string
	checkedAt time.Time
}

// New creates a Registry for the logical agent described by desc. The
// descriptor's RemoteID is ignored; it is resolved remotely.
func New(platform core.PlatformClient, desc core.AgentDescriptor, optFns ...func(o *Options)) *Registry {
	opts := Options{
		TTL:   5 * time.Minute,
		Retry: retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2, Retryable: core.Retryable},
		Now:   time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{platform: platform, desc: desc, opts: opts}
}

// EnsureAgent returns the remote agent id, resolving it if the cache is empty
// or stale. Resolution lists remote agents and takes the first whose name
// matches the configured logical name; if none matches, a new agent is
// created with the configured model, instructions and tools. Both remote
// calls are retried. On exhausted failure the cache is cleared before the
// error propagates, so the next call starts clean instead of wedged on a
// half-initialized id.
func (r *Registry) EnsureAgent(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.opts.Now()
	if r.cachedID != "" && now.Sub(r.checkedAt) < r.opts.TTL {
		return r.cachedID, nil
	}

	id, err := r.resolve(ctx)
	if err != nil {
		r.cachedID = ""
		r.checkedAt = time.Time{}
		return "", err
	}
	r.cachedID = id
	r.checkedAt = now
	return id, nil
}

func (r *Registry) resolve(ctx context.Context) (string, error) {
	agents, err := retry.Do(ctx, r.opts.Retry, func(ctx context.Context) ([]core.AgentDescriptor, error) {
		return r.platform.ListAgents(ctx)
	})
	if err != nil {
		return "", err
	}
	// First match by name wins; duplicates left by racing replicas converge
	// on the same survivor.
	for _, a := range agents {
		if a.Name == r.desc.Name {
			r.opts.Logger.Debug("resolved existing agent", "agent", r.desc.Name, "id", a.RemoteID)
			return a.RemoteID, nil
		}
	}

	created, err := retry.Do(ctx, r.opts.Retry, func(ctx context.Context) (core.AgentDescriptor, error) {
		return r.platform.CreateAgent(ctx, r.desc)
	})
	if err != nil {
		return "", err
	}
	r.opts.Logger.Info("created remote agent", "agent", r.desc.Name, "id", created.RemoteID, "model", r.desc.Model)
	return created.RemoteID, nil
}

// Find resolves the remote agent id by name without creating one and without
// touching the cache. An empty id with a nil error means no agent matches;
// teardown paths use this so they never provision what they are about to
// delete.
func (r *Registry) Find(ctx context.Context) (string, error) {
	agents, err := retry.Do(ctx, r.opts.Retry, func(ctx context.Context) ([]core.AgentDescriptor, error) {
		return r.platform.ListAgents(ctx)
	})
	if err != nil {
		return "", err
	}
	for _, a := range agents {
		if a.Name == r.desc.Name {
			return a.RemoteID, nil
		}
	}
	return "", nil
}

// Reset drops the cached id and timestamp. Used after the platform reports
// the cached agent is no longer recognized; the next EnsureAgent performs a
// fresh remote lookup (and recreates the agent if needed).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cachedID = ""
	r.checkedAt = time.Time{}
}

// Cached returns the currently cached agent id without touching the network,
// and whether one is present. Freshness is not checked; this is advisory
// (health, admin endpoints).
func (r *Registry) Cached() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cachedID, r.cachedID != ""
}

// Name returns the configured logical agent name.
func (r *Registry) Name() string { return r.desc.Name }
