package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrClosed = errors.New("pool: closed")
	ErrFull   = errors.New("pool: queue full")
)

// Task is one unit of work. The context passed in is canceled when the
// pool shuts down; a task that can block must watch it.
type Task func(ctx context.Context)

// Config configures a WorkerPool.
type Config struct {
	Workers      int         `json:"workers"`
	QueueSize    int         `json:"queue_size"`
	PanicHandler func(any)   `json:"-"`
	Logger       *zap.Logger `json:"-"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 256,
	}
}

// WorkerPool runs tasks on a fixed set of worker goroutines. Submitting is
// never blocking: a full queue or a closed pool rejects with an error so
// the caller can abort its own work instead of waiting.
type WorkerPool struct {
	cfg    Config
	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	wg     sync.WaitGroup
	logger *zap.Logger

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panicked  atomic.Int64
}

// New creates a pool and starts its workers.
func New(cfg Config) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		cfg:    cfg,
		tasks:  make(chan Task, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		logger: cfg.Logger.With(zap.String("component", "workerpool")),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// NewSingle returns a single-worker pool, the internally managed default
// used when an iterator is constructed without a pool handle.
func NewSingle() *WorkerPool {
	return New(Config{Workers: 1, QueueSize: 64})
}

// Submit enqueues a task without blocking. It must not race Close from the
// same caller; tasks resubmitting themselves from a worker are always safe.
func (p *WorkerPool) Submit(task Task) error {
	if p.closed.Load() {
		p.rejected.Add(1)
		return ErrClosed
	}
	select {
	case p.tasks <- task:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return ErrFull
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case t := <-p.tasks:
			p.run(t)
		case <-p.ctx.Done():
			// Keep draining with the canceled context so task owners
			// observe shutdown instead of waiting forever.
			for {
				select {
				case t := <-p.tasks:
					p.run(t)
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Warn("task panic", zap.Any("panic", r))
			if p.cfg.PanicHandler != nil {
				p.cfg.PanicHandler(r)
			}
		}
	}()
	t(p.ctx)
	p.completed.Add(1)
}

// Close stops the pool: no new submissions, workers exit after the queue
// empties, leftover tasks run with the canceled context. Idempotent.
func (p *WorkerPool) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	p.wg.Wait()
	for {
		select {
		case t := <-p.tasks:
			p.run(t)
		default:
			return
		}
	}
}

// Stats contains pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Rejected  int64 `json:"rejected"`
	Panicked  int64 `json:"panicked"`
}

// Stats returns a snapshot of the pool counters.
func (p *WorkerPool) Stats() Stats {
	return Stats{
		Workers:   p.cfg.Workers,
		Queued:    len(p.tasks),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
		Panicked:  p.panicked.Load(),
	}
}
