package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/soltixdb/columnstore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("test", nil)

	c.RowsResolved("STRING", 7, 3)
	c.PageRead(StrategyFull)
	c.PageRead(StrategyPoint)
	c.PageRead(StrategyPoint)
	c.TableShardOperation("add", "overlap")

	assert.Equal(t, 7.0, testutil.ToFloat64(c.rowsResolved.WithLabelValues("found")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.rowsResolved.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pagesRead.WithLabelValues(StrategyFull)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.pagesRead.WithLabelValues(StrategyPoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tableShards.WithLabelValues("add", "overlap")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RowsResolved("LONG", 1, 1)
		c.PageRead(StrategyFull)
		c.TableShardOperation("remove", "ok")
	})
}

func TestInit_RegistersWhenEnabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := Init(config.MetricsConfig{Enabled: true, Namespace: "colstore"}, reg)
	t.Cleanup(func() { Init(config.MetricsConfig{Namespace: "columnstore"}, nil) })

	assert.Same(t, c, Default())
	c.PageRead(StrategyFull)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "colstore_page_reads_total")
}
