package prefetch

import (
	"time"

	"go.uber.org/zap"
)

// Config carries the settings shared by both producer strategies.
type Config struct {
	// Capacity bounds the look-ahead: at most Capacity-1 elements sit in
	// the buffer plus one in flight between producer and consumer.
	// Capacity 1 means a synchronous handoff. Must be > 0.
	Capacity int `json:"capacity"`

	// AbortCheckInterval bounds every blocking wait on the buffer; the
	// abort flag is rechecked at least this often.
	AbortCheckInterval time.Duration `json:"abort_check_interval"`

	// CancelGrace bounds the best-effort attempt to hand a final
	// end-of-sequence slot to a blocked consumer during shutdown.
	CancelGrace time.Duration `json:"cancel_grace"`

	// Logger receives lifecycle events. Nil means no logging.
	Logger *zap.Logger `json:"-"`
}

// DefaultConfig returns the settings used when callers have no opinion.
func DefaultConfig() Config {
	return Config{
		Capacity:           16,
		AbortCheckInterval: 10 * time.Second,
		CancelGrace:        time.Second,
	}
}

// Validate reports a configuration error before any concurrency starts.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	return nil
}

// withDefaults fills the zero-valued pacing fields and the logger.
func (c Config) withDefaults() Config {
	if c.AbortCheckInterval <= 0 {
		c.AbortCheckInterval = 10 * time.Second
	}
	if c.CancelGrace <= 0 {
		c.CancelGrace = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// DedicatedConfig configures a DedicatedIterator.
type DedicatedConfig struct {
	Config

	// Spawn starts the dedicated worker. Nil means `go`.
	Spawn func(func()) `json:"-"`

	// FaultHandler receives a fatal, non-data fault (a panic from the
	// source) on the worker, out-of-band. Such faults never surface
	// through the consumer. Nil means the fault is only logged.
	FaultHandler func(any) `json:"-"`
}

// DefaultDedicatedConfig returns defaults for the dedicated strategy.
func DefaultDedicatedConfig() DedicatedConfig {
	return DedicatedConfig{Config: DefaultConfig()}
}

// PooledConfig configures a PooledIterator.
type PooledConfig struct {
	Config
}

// DefaultPooledConfig returns defaults for the pooled strategy.
func DefaultPooledConfig() PooledConfig {
	return PooledConfig{Config: DefaultConfig()}
}
