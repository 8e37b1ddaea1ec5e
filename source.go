package prefetch

// Source is a pull-based producer of elements. Next returns the next
// element with ok=true, ok=false once the source is exhausted, or a
// non-nil error when the pull fails. Whether the failure came from an
// availability check or from producing the element is the source's own
// business; the iterator treats both identically and replays the error at
// the failing element's position.
//
// A Source is pulled by exactly one producer goroutine at a time, never
// concurrently, so implementations need no internal locking.
type Source[T any] interface {
	Next() (value T, ok bool, err error)
}

// FuncSource adapts a plain function to a Source.
type FuncSource[T any] func() (T, bool, error)

// Next implements Source.
func (f FuncSource[T]) Next() (T, bool, error) {
	return f()
}

// SliceSource yields the elements of a slice in order. Nil elements are
// yielded as-is and round-trip through the iterator.
type SliceSource[T any] struct {
	items []T
	pos   int
}

// NewSliceSource returns a Source over items.
func NewSliceSource[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// Next implements Source.
func (s *SliceSource[T]) Next() (T, bool, error) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}
