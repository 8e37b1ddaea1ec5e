package prefetch

import "reflect"

// slotKind discriminates the variants transported over the buffer.
// An explicit closed sum replaces value-identity sentinels so a real
// element can never collide with the end or failure markers.
type slotKind uint8

const (
	slotValue slotKind = iota
	slotNull
	slotEnd
	slotFailure
)

// slot is the unit carried from producer to consumer. At most one terminal
// slot (slotEnd or slotFailure) is ever enqueued per instance, and nothing
// follows it.
type slot[T any] struct {
	kind  slotKind
	value T
	fault *SourceFault
}

func (s slot[T]) terminal() bool {
	return s.kind == slotEnd || s.kind == slotFailure
}

// encodeValue maps a source element to a slot, classifying nil-valued
// elements so they round-trip distinct from "no value yet".
func encodeValue[T any](v T) slot[T] {
	if isNilValue(v) {
		return slot[T]{kind: slotNull}
	}
	return slot[T]{kind: slotValue, value: v}
}

func endSlot[T any]() slot[T] {
	return slot[T]{kind: slotEnd}
}

func faultSlot[T any](f *SourceFault) slot[T] {
	return slot[T]{kind: slotFailure, fault: f}
}

// isNilValue reports whether v is a nil value of a nilable kind. Value
// kinds (ints, structs, strings) are never nil.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
