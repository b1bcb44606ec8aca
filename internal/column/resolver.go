package column

import (
	"context"
	"runtime"
	"sync"

	"github.com/soltixdb/columnstore/internal/config"
	"github.com/soltixdb/columnstore/internal/logging"
	"github.com/soltixdb/columnstore/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultFullDecompressRatio is the share of a page's rows above which a
// batch decompresses the whole page instead of reading single entries.
const DefaultFullDecompressRatio = 1.0 / 3

// Resolver runs batch row resolution over the pages of a shard
type Resolver struct {
	workers   int
	fullRatio float64
	metrics   *metrics.Collector
}

// NewResolver creates a resolver from configuration. A nil collector falls
// back to the process-wide one at resolve time.
func NewResolver(cfg config.ResolverConfig, collector *metrics.Collector) *Resolver {
	r := &Resolver{
		workers:   cfg.Workers,
		fullRatio: cfg.FullDecompressRatio,
		metrics:   collector,
	}
	if r.workers < 1 {
		r.workers = runtime.NumCPU()
	}
	if r.fullRatio <= 0 {
		r.fullRatio = DefaultFullDecompressRatio
	}
	return r
}

var (
	defaultResolverMu sync.RWMutex
	defaultResolver   = NewResolver(config.ResolverConfig{}, nil)
)

// DefaultResolver returns the resolver used by shard batch methods
func DefaultResolver() *Resolver {
	defaultResolverMu.RLock()
	defer defaultResolverMu.RUnlock()
	return defaultResolver
}

// SetDefaultResolver replaces the resolver used by shard batch methods
func SetDefaultResolver(r *Resolver) {
	defaultResolverMu.Lock()
	defaultResolver = r
	defaultResolverMu.Unlock()
}

func (r *Resolver) collector() *metrics.Collector {
	if r.metrics != nil {
		return r.metrics
	}
	return metrics.Default()
}

// Resolve maps each row of the shard to its column value id. Rows outside
// the shard are left out.
func (r *Resolver) Resolve(ctx context.Context, shard Shard, rowIDs []int64) (map[int64]int64, error) {
	flat, err := r.ResolveFlat(ctx, shard, rowIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rowIDs))
	for i, id := range flat {
		if id >= 0 {
			out[rowIDs[i]] = id
		}
	}
	return out, nil
}

// ResolveFlat returns the column value id of each row in input order, -1
// for rows outside the shard.
func (r *Resolver) ResolveFlat(ctx context.Context, shard Shard, rowIDs []int64) ([]int64, error) {
	ps := shard.pageSet()
	out := make([]int64, len(rowIDs))

	// positions into rowIDs, grouped by page, pages in first-seen order
	groups := make(map[int][]int)
	var order []int
	missing := 0
	for pos, rowID := range rowIDs {
		i := ps.find(rowID)
		if i < 0 {
			out[pos] = -1
			missing++
			continue
		}
		if _, ok := groups[i]; !ok {
			order = append(order, i)
		}
		groups[i] = append(groups[i], pos)
	}

	m := r.collector()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, i := range order {
		page, positions := ps.pages[i], groups[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			taskCtx := logging.WithNewExecution(gctx)
			strategy := r.resolvePage(page, rowIDs, positions, out)
			m.PageRead(strategy)
			logging.FromContext(taskCtx).Debug("Resolved column page",
				"column", shard.Name(),
				"first_row_id", page.firstRowID,
				"rows", len(positions),
				"strategy", strategy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.RowsResolved(shard.ColumnType().String(), len(rowIDs)-missing, missing)
	return out, nil
}

// resolvePage fills out for the given positions. Each task owns distinct
// positions, so no locking is needed.
func (r *Resolver) resolvePage(page *Page, rowIDs []int64, positions []int, out []int64) string {
	if float64(len(positions)) > r.fullRatio*float64(page.Size()) {
		locals := page.values.Decompress()
		for _, pos := range positions {
			out[pos] = page.columnValueID(locals[rowIDs[pos]-page.firstRowID])
		}
		return metrics.StrategyFull
	}
	for _, pos := range positions {
		out[pos] = page.ResolveColumnValueID(int(rowIDs[pos] - page.firstRowID))
	}
	return metrics.StrategyPoint
}
