package core

import "strings"

// Part represents a polymorphic segment of message content returned by the
// agent platform. Concrete part types implement the unexported isPart marker
// enabling a closed set: mapping layers must produce exactly one of TextPart,
// ImagePart or UnknownPart for every raw content element rather than
// best-effort coercing unexpected shapes into strings.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ImagePart references a platform-hosted image file produced by a run
// (typically a visualization rendered by the code interpreter tool). The
// bytes are retrieved separately via PlatformClient.DownloadFile.
type ImagePart struct {
	FileID string // Opaque platform file id
}

// isPart implements the Part interface for ImagePart.
func (ImagePart) isPart() {}

// UnknownPart preserves a content segment whose shape the mapping layer did
// not recognize. Callers log and skip these rather than failing the turn.
type UnknownPart struct {
	Kind string // Raw discriminator reported by the platform, if any
}

// isPart implements the Part interface for UnknownPart.
func (UnknownPart) isPart() {}

// Conversation roles produced or consumed by this backend. The platform may
// report additional roles; only these two participate in reply extraction.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message holds a role plus ordered heterogeneous content parts, as produced
// by the platform when a run completes.
type Message struct {
	ID       string
	ThreadID string
	Role     string
	Parts    []Part
}

// TextContent concatenates all text parts of the message in order. Non-text
// parts are skipped.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// FirstImage returns the first image part of the message, preserving the
// original part order, and reports whether one was found.
func (m Message) FirstImage() (ImagePart, bool) {
	for _, p := range m.Parts {
		if ip, ok := p.(ImagePart); ok {
			return ip, true
		}
	}
	return ImagePart{}, false
}
