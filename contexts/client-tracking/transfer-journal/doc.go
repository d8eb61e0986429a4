// Package transferjournal implements the client-side tracking module for the
// multisender monolith.
//
// The module owns the optimistic journal of submitted batches and exposes HTTP
// handlers for submission and entry management plus worker entrypoints for
// per-submission reconciliation and terminal-entry sweeping.
package transferjournal
