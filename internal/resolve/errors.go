package resolve

import "fmt"

// ---------------------------------------------------------------------------
// Error taxonomy
//
// The HTTP layer maps these to status codes (400 / 404 / 500); everything
// else propagates as a generic failure.
// ---------------------------------------------------------------------------

// ValidationError reports malformed query parameters. The user corrects
// their input.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("resolve: invalid %s: %s", e.Field, e.Detail)
}

// NotFoundError reports that no inventory entity matched the focus tuple.
// The user must pick another focus.
type NotFoundError struct {
	FocusKind string
	FocusID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolve: %s %q not found", e.FocusKind, e.FocusID)
}

// UpstreamDataError wraps a failure from the inventory store. Surfaced, not
// auto-retried.
type UpstreamDataError struct {
	Err error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("resolve: inventory store: %v", e.Err)
}

func (e *UpstreamDataError) Unwrap() error { return e.Err }
