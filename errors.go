package prefetch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity reports a non-positive buffer capacity. It is
	// returned synchronously at construction, before any goroutine starts.
	ErrInvalidCapacity = errors.New("prefetch: capacity must be > 0")

	// ErrExhausted is returned by Next once the source has been fully
	// consumed. It is sticky: every later Next returns it again.
	ErrExhausted = errors.New("prefetch: source exhausted")

	// ErrPoisoned reports use of an iterator after it has surfaced a
	// source fault or been closed. It marks a programming error, not a
	// recoverable condition.
	ErrPoisoned = errors.New("prefetch: iterator used after failure or close")

	// errAborted flows internally when a bounded wait is cut short by
	// cancellation. It never escapes the package.
	errAborted = errors.New("prefetch: aborted")
)

// SourceFault carries a source failure from the producer goroutine to the
// consumer. The underlying error crosses unchanged: errors.Is / errors.As
// see the original value via Unwrap, and the fault is surfaced exactly once
// at the position where the failing element would have been returned.
type SourceFault struct {
	// Position is the zero-based index of the element whose pull failed.
	Position int
	// Origin names the producer strategy that captured the fault.
	Origin string
	// Err is the original error from the source, untouched.
	Err error
}

// Error implements the error interface.
func (f *SourceFault) Error() string {
	return fmt.Sprintf("prefetch: source failed at element %d (%s): %v", f.Position, f.Origin, f.Err)
}

// Unwrap returns the original source error.
func (f *SourceFault) Unwrap() error {
	return f.Err
}
