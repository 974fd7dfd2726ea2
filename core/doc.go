// Package core provides the foundational domain types and interfaces used by
// the tutoring backend. It defines the core abstractions for:
//
//   - Agents (named, remotely hosted model + instruction + tool configurations)
//   - Threads (remote conversation contexts accumulating messages)
//   - Runs (one execution of an agent against a thread, with a small state machine)
//   - Messages and their content parts (a closed tagged union of text / image / unknown)
//   - Pluggable clients for the agent platform and for blob storage
//
// The package intentionally keeps implementation concerns (HTTP transport,
// vendor SDKs, object stores, orchestration) out of scope, exposing small
// interfaces so backends can be substituted in tests and production.
package core
