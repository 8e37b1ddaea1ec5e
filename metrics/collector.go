package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/prefetch"
	"github.com/BaSui01/prefetch/pool"
)

// StatsSource is anything exposing iterator stats. Both DedicatedIterator
// and PooledIterator satisfy it.
type StatsSource interface {
	Stats() prefetch.Stats
}

// Collector exports iterator and pool statistics as Prometheus metrics.
// Register it once, then attach sources as they are created; snapshots are
// taken at scrape time.
type Collector struct {
	namespace string
	logger    *zap.Logger

	mu      sync.RWMutex
	sources []StatsSource
	pools   []*pool.WorkerPool

	producedDesc *prometheus.Desc
	consumedDesc *prometheus.Desc
	faultsDesc   *prometheus.Desc
	bufferedDesc *prometheus.Desc
	capacityDesc *prometheus.Desc

	poolQueuedDesc    *prometheus.Desc
	poolSubmittedDesc *prometheus.Desc
	poolCompletedDesc *prometheus.Desc
	poolRejectedDesc  *prometheus.Desc
	poolPanickedDesc  *prometheus.Desc
}

// NewCollector creates a collector under the given namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	iterLabels := []string{"iterator_id", "state"}
	return &Collector{
		namespace: namespace,
		logger:    logger.With(zap.String("component", "metrics")),

		producedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "produced_total"),
			"Elements produced into the look-ahead buffer", iterLabels, nil),
		consumedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "consumed_total"),
			"Elements consumed from the iterator", iterLabels, nil),
		faultsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "faults_total"),
			"Source faults surfaced to the consumer", iterLabels, nil),
		bufferedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "buffered"),
			"Slots currently buffered ahead of the consumer", iterLabels, nil),
		capacityDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "capacity"),
			"Configured look-ahead capacity", iterLabels, nil),

		poolQueuedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "queued"),
			"Tasks waiting in the pool queue", nil, nil),
		poolSubmittedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "submitted_total"),
			"Tasks submitted to the pool", nil, nil),
		poolCompletedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "completed_total"),
			"Tasks completed by the pool", nil, nil),
		poolRejectedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "rejected_total"),
			"Tasks rejected by the pool", nil, nil),
		poolPanickedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "panicked_total"),
			"Tasks that panicked", nil, nil),
	}
}

// Register attaches an iterator to the collector.
func (c *Collector) Register(src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, src)
}

// RegisterPool attaches a worker pool to the collector.
func (c *Collector) RegisterPool(p *pool.WorkerPool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = append(c.pools, p)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.producedDesc
	ch <- c.consumedDesc
	ch <- c.faultsDesc
	ch <- c.bufferedDesc
	ch <- c.capacityDesc
	ch <- c.poolQueuedDesc
	ch <- c.poolSubmittedDesc
	ch <- c.poolCompletedDesc
	ch <- c.poolRejectedDesc
	ch <- c.poolPanickedDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	sources := make([]StatsSource, len(c.sources))
	copy(sources, c.sources)
	pools := make([]*pool.WorkerPool, len(c.pools))
	copy(pools, c.pools)
	c.mu.RUnlock()

	for _, src := range sources {
		s := src.Stats()
		labels := []string{s.ID, s.State}
		ch <- prometheus.MustNewConstMetric(c.producedDesc, prometheus.CounterValue, float64(s.Produced), labels...)
		ch <- prometheus.MustNewConstMetric(c.consumedDesc, prometheus.CounterValue, float64(s.Consumed), labels...)
		ch <- prometheus.MustNewConstMetric(c.faultsDesc, prometheus.CounterValue, float64(s.Faults), labels...)
		ch <- prometheus.MustNewConstMetric(c.bufferedDesc, prometheus.GaugeValue, float64(s.Buffered), labels...)
		ch <- prometheus.MustNewConstMetric(c.capacityDesc, prometheus.GaugeValue, float64(s.Capacity), labels...)
	}

	var queued, submitted, completed, rejected, panicked int64
	for _, p := range pools {
		ps := p.Stats()
		queued += int64(ps.Queued)
		submitted += ps.Submitted
		completed += ps.Completed
		rejected += ps.Rejected
		panicked += ps.Panicked
	}
	if len(pools) > 0 {
		ch <- prometheus.MustNewConstMetric(c.poolQueuedDesc, prometheus.GaugeValue, float64(queued))
		ch <- prometheus.MustNewConstMetric(c.poolSubmittedDesc, prometheus.CounterValue, float64(submitted))
		ch <- prometheus.MustNewConstMetric(c.poolCompletedDesc, prometheus.CounterValue, float64(completed))
		ch <- prometheus.MustNewConstMetric(c.poolRejectedDesc, prometheus.CounterValue, float64(rejected))
		ch <- prometheus.MustNewConstMetric(c.poolPanickedDesc, prometheus.CounterValue, float64(panicked))
	}
}
