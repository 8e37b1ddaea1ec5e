package testutil

import (
	"sync/atomic"

	"github.com/BaSui01/prefetch"
)

// CountingSource yields 1..N and records how many elements it has handed
// out, so tests can assert the look-ahead bound while draining.
type CountingSource struct {
	N        int
	produced atomic.Int64
}

// NewCountingSource returns a source over 1..n.
func NewCountingSource(n int) *CountingSource {
	return &CountingSource{N: n}
}

// Next implements prefetch.Source.
func (s *CountingSource) Next() (int, bool, error) {
	next := int(s.produced.Load()) + 1
	if next > s.N {
		return 0, false, nil
	}
	s.produced.Add(1)
	return next, true, nil
}

// Produced returns how many elements the source has handed out so far.
func (s *CountingSource) Produced() int {
	return int(s.produced.Load())
}

// FailingSource wraps a source and fails the pull at the given zero-based
// index. Pulls past the failure keep failing with the same error.
type FailingSource[T any] struct {
	Inner  prefetch.Source[T]
	FailAt int
	Err    error
	pos    int
}

// Next implements prefetch.Source.
func (s *FailingSource[T]) Next() (T, bool, error) {
	if s.pos == s.FailAt {
		var zero T
		return zero, false, s.Err
	}
	s.pos++
	return s.Inner.Next()
}

// PanickingSource wraps a source and panics on the pull at the given
// zero-based index.
type PanickingSource[T any] struct {
	Inner   prefetch.Source[T]
	PanicAt int
	Payload any
	pos     int
}

// Next implements prefetch.Source.
func (s *PanickingSource[T]) Next() (T, bool, error) {
	if s.pos == s.PanicAt {
		panic(s.Payload)
	}
	s.pos++
	return s.Inner.Next()
}

// SerialGuardSource wraps a source and counts overlapping Next calls.
// The iterator contract promises strictly sequential pulls, so any
// violation means two producer activations ran at once.
type SerialGuardSource[T any] struct {
	Inner      prefetch.Source[T]
	inFlight   atomic.Int32
	violations atomic.Int64
}

// Next implements prefetch.Source.
func (s *SerialGuardSource[T]) Next() (T, bool, error) {
	if s.inFlight.Add(1) > 1 {
		s.violations.Add(1)
	}
	defer s.inFlight.Add(-1)
	return s.Inner.Next()
}

// Violations returns how many overlapping pulls were observed.
func (s *SerialGuardSource[T]) Violations() int64 {
	return s.violations.Load()
}

// GatedSource yields 1..N but hands out an element only after a matching
// Release. Tests use it to pin the producer at a known position.
type GatedSource struct {
	N    int
	gate chan struct{}
	pos  int
}

// NewGatedSource returns a gated source over 1..n.
func NewGatedSource(n int) *GatedSource {
	return &GatedSource{N: n, gate: make(chan struct{}, n)}
}

// Release allows k further elements to be produced.
func (s *GatedSource) Release(k int) {
	for i := 0; i < k; i++ {
		s.gate <- struct{}{}
	}
}

// Next implements prefetch.Source. It blocks until released.
func (s *GatedSource) Next() (int, bool, error) {
	if s.pos >= s.N {
		return 0, false, nil
	}
	<-s.gate
	s.pos++
	return s.pos, true, nil
}
