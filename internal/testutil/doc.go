// Package testutil contains helper fakes used across tests to reduce
// boilerplate when exercising the agent lifecycle (registry, conversation,
// extraction, REST surface) without a live platform. These helpers are
// intentionally minimal and avoid adding third-party dependencies. They are
// not intended for production usage.
package testutil
