package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	p := New(Config{Workers: 2, QueueSize: 8})
	defer p.Close()

	var ran atomic.Int64
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		last := i == 4
		require.NoError(t, p.Submit(func(ctx context.Context) {
			ran.Add(1)
			if last {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks never ran")
	}
	assert.Eventually(t, func() bool { return ran.Load() == 5 }, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 2})
	p.Close()

	err := p.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, int64(1), p.Stats().Rejected)
}

func TestWorkerPool_QueueFull(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 0})
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	occupy := func(context.Context) {
		close(started)
		<-block
	}
	// An unbuffered queue hands off directly to a worker; retry until the
	// worker is at its receive.
	var err error
	for i := 0; i < 200; i++ {
		if err = p.Submit(occupy); err == nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, err)
	<-started

	// Worker busy, zero queue: the next submit is rejected, not blocked.
	err = p.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, ErrFull)
	close(block)
}

func TestWorkerPool_TaskChaining(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 4})
	defer p.Close()

	// A task that resubmits an equivalent of itself a fixed number of
	// times, the way the pooled producer chains pull cycles.
	var hops atomic.Int64
	done := make(chan struct{})
	var chain func(ctx context.Context)
	chain = func(ctx context.Context) {
		if hops.Add(1) == 10 {
			close(done)
			return
		}
		if err := p.Submit(chain); err != nil {
			t.Errorf("resubmit failed: %v", err)
			close(done)
		}
	}
	require.NoError(t, p.Submit(chain))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("chain never completed")
	}
	assert.Equal(t, int64(10), hops.Load())
}

func TestWorkerPool_PanicHandler(t *testing.T) {
	panics := make(chan any, 1)
	p := New(Config{Workers: 1, QueueSize: 2, PanicHandler: func(v any) { panics <- v }})
	defer p.Close()

	require.NoError(t, p.Submit(func(context.Context) { panic("task exploded") }))

	select {
	case v := <-panics:
		assert.Equal(t, "task exploded", v)
	case <-time.After(2 * time.Second):
		t.Fatal("panic handler never invoked")
	}

	// The worker survives and keeps serving.
	done := make(chan struct{})
	require.NoError(t, p.Submit(func(context.Context) { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}
	assert.Equal(t, int64(1), p.Stats().Panicked)
}

func TestWorkerPool_CloseCancelsTaskContext(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 2})

	observed := make(chan error, 1)
	started := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		observed <- ctx.Err()
	}))
	<-started

	go p.Close()

	select {
	case err := <-observed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("task never observed shutdown")
	}
}

func TestWorkerPool_LeftoverTasksNotDropped(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 8})

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-block
	}))
	<-started

	// Queued behind the blocked worker.
	var ran atomic.Int64
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Submit(func(ctx context.Context) { ran.Add(1) }))
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(block)
	}()
	p.Close()

	// Every accepted task ran, even those drained during shutdown.
	assert.Equal(t, int64(3), ran.Load())
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	p := NewSingle()
	p.Close()
	p.Close()
}

func TestWorkerPool_Stats(t *testing.T) {
	p := New(Config{Workers: 3, QueueSize: 4})
	defer p.Close()

	done := make(chan struct{})
	require.NoError(t, p.Submit(func(context.Context) { close(done) }))
	<-done

	s := p.Stats()
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, int64(1), s.Submitted)
	assert.Eventually(t, func() bool { return p.Stats().Completed == 1 }, time.Second, 5*time.Millisecond)
}

func TestWorkerPool_DefaultsApplied(t *testing.T) {
	p := New(Config{})
	defer p.Close()
	assert.Equal(t, 1, p.Stats().Workers)
}
