// Package artifact turns image references embedded in assistant messages into
// publicly addressable URLs. It downloads file bytes from the agent platform,
// normalizes transport shapes, and persists the result through a
// core.BlobStore under a deterministic name so repeated extraction of the same
// remote file is idempotent.
//
// The canonical BlobStore interface lives in the core package to keep domain
// contracts central. Implementation packages (in-memory, MinIO/S3 object
// stores) provide storage backends that can be swapped without touching
// calling code. Callers should depend on the core interface rather than
// concrete types so they can substitute alternative persistence layers in
// tests or production.
package artifact
