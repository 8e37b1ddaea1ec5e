package prefetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle state of an iterator. Exhausted, Failed and
// Canceled are terminal: no transition ever leaves them.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateExhausted
	StateFailed
	StateCanceled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == StateExhausted || s == StateFailed || s == StateCanceled
}

// Iterator is the consumer-facing pull surface shared by both producer
// strategies. It is single-consumer: calls may come from different
// goroutines over time, but never concurrently.
type Iterator[T any] interface {
	// HasNext reports whether another element is available, starting
	// production lazily on first use. A captured source fault is returned
	// here if HasNext is the first call to reach the failing position.
	HasNext(ctx context.Context) (bool, error)

	// Next returns the next element in source order. A nil-valued source
	// element comes back as the zero value of T. After exhaustion Next
	// keeps returning ErrExhausted; after a fault or Close it returns
	// ErrPoisoned.
	Next(ctx context.Context) (T, error)

	// Prestart begins production ahead of the first pull. Idempotent,
	// safe to omit.
	Prestart()

	// Close requests cancellation: production stops promptly and the
	// iterator is poisoned. Idempotent.
	Close() error

	// Stats returns a point-in-time snapshot of the instance.
	Stats() Stats
}

// Stats is a point-in-time snapshot of one iterator instance.
type Stats struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Capacity int    `json:"capacity"`
	Produced int64  `json:"produced"`
	Consumed int64  `json:"consumed"`
	Buffered int    `json:"buffered"`
	Faults   int64  `json:"faults"`
}

// core implements the facade shared by DedicatedIterator and
// PooledIterator: lazy start, slot decoding, the state machine, and
// cancellation plumbing. The producer strategy plugs in via startFn.
type core[T any] struct {
	id     string
	cfg    Config
	buf    *buffer[T]
	logger *zap.Logger

	abort     chan struct{}
	abortOnce sync.Once

	startOnce sync.Once
	startFn   func()

	state atomic.Int32

	// onDeck holds the slot between an availability check and the take
	// that consumes it. Consumer side only.
	onDeck *slot[T]

	produced atomic.Int64
	consumed atomic.Int64
	faults   atomic.Int64
}

func newCore[T any](cfg Config, origin string) (*core[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	abort := make(chan struct{})
	id := uuid.NewString()
	return &core[T]{
		id:     id,
		cfg:    cfg,
		buf:    newBuffer[T](cfg.Capacity, cfg.AbortCheckInterval, abort),
		logger: cfg.Logger.With(zap.String("component", origin), zap.String("iterator_id", id)),
		abort:  abort,
	}, nil
}

// ensureStarted triggers the producer strategy exactly once. A close that
// arrived before first use wins: production never starts.
func (c *core[T]) ensureStarted() {
	c.startOnce.Do(func() {
		if c.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
			c.logger.Debug("starting production")
			c.startFn()
		}
	})
}

// Prestart implements Iterator.
func (c *core[T]) Prestart() {
	c.ensureStarted()
}

// HasNext implements Iterator.
func (c *core[T]) HasNext(ctx context.Context) (bool, error) {
	switch State(c.state.Load()) {
	case StateExhausted:
		return false, nil
	case StateFailed, StateCanceled:
		return false, ErrPoisoned
	}
	c.ensureStarted()

	if c.onDeck == nil {
		s, err := c.buf.take(ctx)
		if err != nil {
			if errors.Is(err, errAborted) {
				c.transition(StateCanceled)
				return false, nil
			}
			// Context errors do not poison: the wait can be retried.
			return false, err
		}
		c.onDeck = &s
	}

	switch c.onDeck.kind {
	case slotEnd:
		c.onDeck = nil
		c.transition(StateExhausted)
		return false, nil
	case slotFailure:
		return false, c.surfaceFault()
	default:
		return true, nil
	}
}

// Next implements Iterator.
func (c *core[T]) Next(ctx context.Context) (T, error) {
	var zero T
	switch State(c.state.Load()) {
	case StateExhausted:
		return zero, ErrExhausted
	case StateFailed, StateCanceled:
		return zero, ErrPoisoned
	}
	c.ensureStarted()

	if c.onDeck == nil {
		s, err := c.buf.take(ctx)
		if err != nil {
			if errors.Is(err, errAborted) {
				c.transition(StateCanceled)
				return zero, ErrExhausted
			}
			return zero, err
		}
		c.onDeck = &s
	}

	switch c.onDeck.kind {
	case slotNull:
		c.onDeck = nil
		c.consumed.Add(1)
		return zero, nil
	case slotEnd:
		c.onDeck = nil
		c.transition(StateExhausted)
		return zero, ErrExhausted
	case slotFailure:
		return zero, c.surfaceFault()
	default:
		v := c.onDeck.value
		c.onDeck = nil
		c.consumed.Add(1)
		return v, nil
	}
}

// surfaceFault delivers the captured fault exactly once and poisons the
// iterator. The wrapped source error crosses unchanged.
func (c *core[T]) surfaceFault() error {
	f := c.onDeck.fault
	c.onDeck = nil
	c.faults.Add(1)
	c.transition(StateFailed)
	c.logger.Debug("source fault surfaced",
		zap.Int("position", f.Position),
		zap.Error(f.Err))
	return f
}

// Close implements Iterator.
func (c *core[T]) Close() error {
	c.signalAbort()
	c.transition(StateCanceled)
	return nil
}

// signalAbort fires the shared cancellation flag. Safe to call from either
// side, any number of times.
func (c *core[T]) signalAbort() {
	c.abortOnce.Do(func() {
		c.logger.Debug("abort signaled")
		close(c.abort)
	})
}

// transition moves to a new state unless the current one is terminal.
func (c *core[T]) transition(to State) {
	for {
		cur := State(c.state.Load())
		if cur.terminal() {
			return
		}
		if c.state.CompareAndSwap(int32(cur), int32(to)) {
			c.logger.Debug("state transition",
				zap.String("from", cur.String()),
				zap.String("to", to.String()))
			return
		}
	}
}

// State returns the current lifecycle state.
func (c *core[T]) State() State {
	return State(c.state.Load())
}

// Stats implements Iterator.
func (c *core[T]) Stats() Stats {
	return Stats{
		ID:       c.id,
		State:    State(c.state.Load()).String(),
		Capacity: c.cfg.Capacity,
		Produced: c.produced.Load(),
		Consumed: c.consumed.Load(),
		Buffered: c.buf.buffered(),
		Faults:   c.faults.Load(),
	}
}
