package prefetch

import (
	"context"

	"go.uber.org/zap"
)

const originDedicated = "dedicated"

// DedicatedIterator owns one background goroutine for its whole life. The
// worker loops pulling the source and filling the buffer until a terminal
// slot or cancellation. Lowest latency per instance; costly at high
// instance counts, which is what PooledIterator is for.
type DedicatedIterator[T any] struct {
	*core[T]
	cfg    DedicatedConfig
	source Source[T]
}

var _ Iterator[any] = (*DedicatedIterator[any])(nil)

// NewDedicated creates a dedicated-worker iterator over source. The worker
// starts on first use or Prestart. Capacity must be positive; the check
// happens here, before any goroutine exists.
func NewDedicated[T any](cfg DedicatedConfig, source Source[T]) (*DedicatedIterator[T], error) {
	c, err := newCore[T](cfg.Config, originDedicated)
	if err != nil {
		return nil, err
	}
	it := &DedicatedIterator[T]{core: c, cfg: cfg, source: source}

	spawn := cfg.Spawn
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	c.startFn = func() { spawn(it.run) }
	return it, nil
}

// run is the worker loop. The source is pulled by this goroutine only.
func (it *DedicatedIterator[T]) run() {
	defer func() {
		if r := recover(); r != nil {
			// Fatal non-data fault: delivered out-of-band, never
			// through the consumer.
			it.logger.Warn("fatal fault on dedicated worker", zap.Any("panic", r))
			if it.cfg.FaultHandler != nil {
				it.cfg.FaultHandler(r)
			}
			it.shutdown()
		}
	}()

	ctx := context.Background()
	for pos := 0; ; pos++ {
		select {
		case <-it.abort:
			it.shutdown()
			return
		default:
		}

		v, ok, err := it.source.Next()
		var s slot[T]
		switch {
		case err != nil:
			s = faultSlot[T](&SourceFault{Position: pos, Origin: originDedicated, Err: err})
		case !ok:
			s = endSlot[T]()
		default:
			s = encodeValue(v)
		}

		if perr := it.buf.put(ctx, s); perr != nil {
			// Abort fired while waiting on a full buffer.
			it.shutdown()
			return
		}

		if s.terminal() {
			if s.kind == slotFailure {
				it.logger.Debug("source fault captured", zap.Int("position", pos), zap.Error(s.fault.Err))
			} else {
				it.logger.Debug("source exhausted", zap.Int64("produced", it.produced.Load()))
			}
			return
		}
		it.produced.Add(1)
	}
}

// shutdown runs on the worker after cancellation or a fatal fault: signal
// abort, discard buffered slots, then make one bounded attempt to hand an
// end slot to a consumer already blocked in take. The worker never blocks
// indefinitely trying to deliver it.
func (it *DedicatedIterator[T]) shutdown() {
	it.signalAbort()
	it.buf.drainAll()
	if !it.buf.offer(endSlot[T](), it.core.cfg.CancelGrace) {
		it.logger.Debug("no consumer waiting, end slot dropped")
	}
}
