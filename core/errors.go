package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a remote reference (agent, thread, file) is not
	// recognized by the platform. Platform implementations wrap their vendor
	// 404s so callers can classify stale-reference failures.
	ErrNotFound = errors.New("resource not found")

	// ErrNotAuthorized indicates the platform rejected the credentials.
	// Never retried.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrUnknownThread indicates the caller supplied a thread id this backend
	// does not recognize. Surfaced as a client error so the UI can prompt the
	// user to start a new conversation.
	ErrUnknownThread = errors.New("unknown or expired conversation thread")
)

// RunFailedError reports a run that reached a terminal failure state. The
// run itself is not retried; restart is a fresh Send after any cache
// invalidation.
type RunFailedError struct {
	Status RunStatus
	Cause  string
}

// Error implements the error interface.
func (e *RunFailedError) Error() string {
	if e.Cause == "" {
		return fmt.Sprintf("run ended with status %s", e.Status)
	}
	return fmt.Sprintf("run ended with status %s: %s", e.Status, e.Cause)
}

// IsStaleAgent reports whether err indicates the cached agent id is no longer
// recognized by the platform. The platform states the cause as free text on
// failed runs, so a substring check on the reported cause is required in
// addition to the typed ErrNotFound path.
func IsStaleAgent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var rf *RunFailedError
	if errors.As(err, &rf) {
		return strings.Contains(strings.ToLower(rf.Cause), "not found")
	}
	return false
}

// Retryable is the default transient-error predicate for remote platform and
// storage calls: everything is assumed transient except explicit
// authentication failures and missing references, which retrying cannot fix.
func Retryable(err error) bool {
	return !errors.Is(err, ErrNotAuthorized) && !errors.Is(err, ErrNotFound)
}
