package errs

import "errors"

// Taxonomy of operation errors surfaced by the order lifecycle core.
// Callers classify with errors.Is and wrap additional context with %w.
var (
	// ErrWindowClosed indicates a mutation was attempted after the modification
	// window closed. Recoverable by informing the user; never retryable.
	ErrWindowClosed = errors.New("modification window is closed")

	// ErrProviderMismatch indicates an item addition targeted a provider the
	// order does not belong to. Structural misuse, not retryable; the caller
	// must start a new order instead.
	ErrProviderMismatch = errors.New("item provider does not match order provider")

	// ErrTimeout indicates the order backend did not respond in time.
	// Retryable for reads. For mutations the outcome is ambiguous: the request
	// may have succeeded server-side, so callers must direct the user to verify
	// rather than assume failure.
	ErrTimeout = errors.New("order backend timed out")

	// ErrStaleRegression indicates a fetched snapshot reported an earlier
	// lifecycle stage than the one already displayed. Internal only: logged and
	// discarded, never surfaced to users.
	ErrStaleRegression = errors.New("stale snapshot regression discarded")
)
