package prefetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/prefetch/pool"
)

const originPooled = "pooled"

// PooledIterator produces on a shared pool.WorkerPool via task chaining:
// each activation performs exactly one pull, enqueues the resulting slot,
// and resubmits an equivalent task unless the slot was terminal or the
// enqueue aborted. The worker is released between elements, so many
// instances can share few workers; at most one task per instance is ever
// outstanding, which keeps the source strictly sequential.
type PooledIterator[T any] struct {
	*core[T]
	cfg    PooledConfig
	source Source[T]
	pool   *pool.WorkerPool
	owned  bool

	// pos is touched only inside pool tasks; the chain's submit/receive
	// pair orders the accesses across workers.
	pos int
}

var _ Iterator[any] = (*PooledIterator[any])(nil)

// NewPooled creates a pooled iterator over source. A nil pool handle means
// an internally managed single-worker pool, closed together with the
// iterator. Capacity must be positive; checked before anything runs.
func NewPooled[T any](cfg PooledConfig, source Source[T], p *pool.WorkerPool) (*PooledIterator[T], error) {
	c, err := newCore[T](cfg.Config, originPooled)
	if err != nil {
		return nil, err
	}

	owned := false
	if p == nil {
		p = pool.NewSingle()
		owned = true
	}

	it := &PooledIterator[T]{core: c, cfg: cfg, source: source, pool: p, owned: owned}
	c.startFn = func() {
		if serr := p.Submit(it.step); serr != nil {
			it.logger.Warn("pool rejected initial task", zap.Error(serr))
			it.signalAbort()
		}
	}
	return it, nil
}

// step is one activation of the task chain: one pull cycle, one slot.
func (it *PooledIterator[T]) step(ctx context.Context) {
	select {
	case <-it.abort:
		return
	default:
	}
	if ctx.Err() != nil {
		// Pool shutting down underneath us.
		it.logger.Debug("pool context canceled, aborting")
		it.signalAbort()
		return
	}

	s := it.pullOne()

	// put keeps retrying a bounded enqueue, rechecking abort and the pool
	// context; the produced value is never dropped on a timed-out attempt.
	if perr := it.buf.put(ctx, s); perr != nil {
		it.signalAbort()
		return
	}

	if s.terminal() {
		// The chain stops here: a terminal slot is always the last one.
		if s.kind == slotFailure {
			it.logger.Debug("source fault captured", zap.Int("position", s.fault.Position), zap.Error(s.fault.Err))
		} else {
			it.logger.Debug("source exhausted", zap.Int64("produced", it.produced.Load()))
		}
		return
	}
	it.produced.Add(1)

	if serr := it.pool.Submit(it.step); serr != nil {
		it.logger.Warn("pool rejected resubmission", zap.Error(serr))
		it.signalAbort()
	}
}

// pullOne performs the single pull of this activation. A panicking source
// is captured as a failure slot so the fault still reaches the consumer as
// data; there is no dedicated worker for it to escape on.
func (it *PooledIterator[T]) pullOne() (s slot[T]) {
	defer func() {
		if r := recover(); r != nil {
			it.logger.Warn("source panic captured", zap.Int("position", it.pos), zap.Any("panic", r))
			s = faultSlot[T](&SourceFault{
				Position: it.pos,
				Origin:   originPooled,
				Err:      fmt.Errorf("source panic: %v", r),
			})
		}
	}()

	v, ok, err := it.source.Next()
	switch {
	case err != nil:
		return faultSlot[T](&SourceFault{Position: it.pos, Origin: originPooled, Err: err})
	case !ok:
		return endSlot[T]()
	default:
		it.pos++
		return encodeValue(v)
	}
}

// Close implements Iterator. An internally managed pool is closed too;
// Close returns after its worker has exited.
func (it *PooledIterator[T]) Close() error {
	it.core.Close()
	if it.owned {
		it.pool.Close()
	}
	return nil
}
