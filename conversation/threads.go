package conversation

import (
	"sync"
	"time"
)

// threadRegistry is a volatile, process-local record of threads this backend
// handed out. It is advisory bookkeeping: the remote thread id is the source
// of truth, and entries can be discarded without a remote delete. Besides
// created-time bookkeeping it carries the per-thread mutex that serializes
// Send calls against the same thread.
type threadRegistry struct {
	mu      sync.RWMutex
	threads map[string]*threadRecord
}

type threadRecord struct {
	created time.Time
	sendMu  sync.Mutex
}

func newThreadRegistry() *threadRegistry {
	return &threadRegistry{threads: make(map[string]*threadRecord)}
}

// add registers a thread id, overwriting any stale record with the same id.
func (r *threadRegistry) add(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[threadID] = &threadRecord{created: time.Now()}
}

// get returns the record for a thread id, if known.
func (r *threadRegistry) get(threadID string) (*threadRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.threads[threadID]
	return rec, ok
}

// remove discards a single thread record.
func (r *threadRegistry) remove(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
}

// clear discards all thread records.
func (r *threadRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads = make(map[string]*threadRecord)
}

// size reports the number of tracked threads.
func (r *threadRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads)
}
