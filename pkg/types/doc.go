// Package types defines the task entity, filter state, mutation intents, and the
// Store, Backend and AuthProvider interfaces shared by every taskboard component,
// together with the standard error types.
package types
