// Package metrics exposes prometheus counters for row resolution and table
// mutation. Collectors are created unregistered unless a registerer is given,
// so tests and tools can build as many as they like.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/soltixdb/columnstore/internal/config"
)

// Page resolution strategies
const (
	StrategyFull  = "full"
	StrategyPoint = "point"
)

// Collector groups the counters of the storage core
type Collector struct {
	rowsResolved *prometheus.CounterVec   // rows requested, by outcome
	pagesRead    *prometheus.CounterVec   // page tasks, by strategy
	tableShards  *prometheus.CounterVec   // add/remove, by result
	resolveSize  *prometheus.HistogramVec // rows per batch
}

// NewCollector creates a collector. A nil registerer leaves the metrics unregistered.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		rowsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_resolved_total",
			Help:      "Rows passed to column value resolution, by outcome",
		}, []string{"outcome"}),
		pagesRead: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_reads_total",
			Help:      "Column page reads during batch resolution, by strategy",
		}, []string{"strategy"}),
		tableShards: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_shard_operations_total",
			Help:      "Table shard add/remove operations, by result",
		}, []string{"operation", "result"}),
		resolveSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_batch_rows",
			Help:      "Number of rows per batch resolution call",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"column_type"}),
	}
}

// RowsResolved records found and missing rows of one batch
func (c *Collector) RowsResolved(columnType string, found, missing int) {
	if c == nil {
		return
	}
	c.rowsResolved.WithLabelValues("found").Add(float64(found))
	c.rowsResolved.WithLabelValues("missing").Add(float64(missing))
	c.resolveSize.WithLabelValues(columnType).Observe(float64(found + missing))
}

// PageRead records one page task using the given strategy
func (c *Collector) PageRead(strategy string) {
	if c == nil {
		return
	}
	c.pagesRead.WithLabelValues(strategy).Inc()
}

// TableShardOperation records an add or remove on a table
func (c *Collector) TableShardOperation(operation, result string) {
	if c == nil {
		return
	}
	c.tableShards.WithLabelValues(operation, result).Inc()
}

var (
	defaultMu        sync.RWMutex
	defaultCollector = NewCollector("columnstore", nil)
)

// Default returns the process-wide collector
func Default() *Collector {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultCollector
}

// Init replaces the process-wide collector according to cfg. When metrics are
// disabled the default collector records into unregistered counters.
func Init(cfg config.MetricsConfig, reg prometheus.Registerer) *Collector {
	var c *Collector
	if cfg.Enabled {
		c = NewCollector(cfg.Namespace, reg)
	} else {
		c = NewCollector(cfg.Namespace, nil)
	}

	defaultMu.Lock()
	defaultCollector = c
	defaultMu.Unlock()
	return c
}
