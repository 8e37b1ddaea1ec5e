package prefetch

import (
	"context"
	"time"
)

// buffer is the bounded FIFO bridge between one producer and one consumer.
// Every blocking wait is bounded: put and take recheck the abort signal at
// least once per tick, so neither side can be stranded after abandonment.
type buffer[T any] struct {
	ch    chan slot[T]
	abort <-chan struct{}
	tick  time.Duration
}

// newBuffer allocates a buffer for the given capacity. Capacity 1
// degenerates to a synchronous handoff; larger capacities hold capacity-1
// slots plus one conceptually in flight between the two sides.
func newBuffer[T any](capacity int, tick time.Duration, abort <-chan struct{}) *buffer[T] {
	return &buffer[T]{
		ch:    make(chan slot[T], capacity-1),
		abort: abort,
		tick:  tick,
	}
}

// put enqueues s, waiting while the buffer is full. It returns errAborted
// once the abort signal fires, or the context error on cancellation. A slot
// handed to put is never dropped on a timed-out attempt: the wait simply
// resumes until one of the exits applies.
func (b *buffer[T]) put(ctx context.Context, s slot[T]) error {
	timer := time.NewTimer(b.tick)
	defer timer.Stop()

	for {
		select {
		case b.ch <- s:
			return nil
		case <-b.abort:
			return errAborted
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(b.tick)
		}
	}
}

// take dequeues the next slot, waiting while the buffer is empty, with the
// same bounded-wait exits as put.
func (b *buffer[T]) take(ctx context.Context) (slot[T], error) {
	timer := time.NewTimer(b.tick)
	defer timer.Stop()

	for {
		select {
		case s := <-b.ch:
			return s, nil
		case <-b.abort:
			return slot[T]{}, errAborted
		case <-ctx.Done():
			return slot[T]{}, ctx.Err()
		case <-timer.C:
			timer.Reset(b.tick)
		}
	}
}

// offer attempts a single bounded enqueue and reports whether it landed.
// Used on the shutdown path to unblock a waiting consumer without ever
// blocking the producer indefinitely.
func (b *buffer[T]) offer(s slot[T], grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case b.ch <- s:
		return true
	case <-timer.C:
		return false
	}
}

// drainAll discards everything currently buffered.
func (b *buffer[T]) drainAll() {
	for {
		select {
		case <-b.ch:
		default:
			return
		}
	}
}

// buffered returns the number of slots currently held.
func (b *buffer[T]) buffered() int {
	return len(b.ch)
}
