package table

import (
	"sort"
	"sync"

	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/logging"
	"github.com/soltixdb/columnstore/internal/metrics"
)

// Table is a named set of table shards with disjoint row ranges.
//
// Readers take a snapshot of the shard slice under the read lock. Writers
// build a new slice and swap it in under the write lock, so a snapshot is
// never modified after it was handed out.
type Table struct {
	name    string
	logger  *logging.Logger
	metrics *metrics.Collector

	mu     sync.RWMutex
	shards []*TableShard // sorted by lowest row id
}

// NewTable creates an empty table. A nil logger or collector falls back to
// the process-wide one.
func NewTable(name string, logger *logging.Logger, collector *metrics.Collector) *Table {
	if logger == nil {
		logger = logging.Global()
	}
	if collector == nil {
		collector = metrics.Default()
	}
	return &Table{
		name:    name,
		logger:  logger.With("table", name),
		metrics: collector,
	}
}

// Name returns the table name
func (t *Table) Name() string { return t.name }

// Shards returns a snapshot of the table shards ordered by lowest row id
func (t *Table) Shards() []*TableShard {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*TableShard(nil), t.shards...)
}

// NumberOfShards returns the current shard count
func (t *Table) NumberOfShards() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.shards)
}

// AddTableShard adds shard unless its rows intersect an existing shard, in
// which case the table is left unchanged and a RangeOverlap error returned.
func (t *Table) AddTableShard(shard *TableShard) error {
	if shard == nil {
		return colerrors.Structural("cannot add a nil table shard to %q", t.name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// i is the ceiling: first shard starting after the new one's lowest row
	i := sort.Search(len(t.shards), func(i int) bool {
		return t.shards[i].lowestRowID > shard.lowestRowID
	})
	if i > 0 {
		if floor := t.shards[i-1]; floor.HighestRowID() >= shard.lowestRowID {
			return t.rejectOverlap(shard, floor)
		}
	}
	if i < len(t.shards) {
		if ceiling := t.shards[i]; ceiling.lowestRowID <= shard.HighestRowID() {
			return t.rejectOverlap(shard, ceiling)
		}
	}

	next := make([]*TableShard, 0, len(t.shards)+1)
	next = append(next, t.shards[:i]...)
	next = append(next, shard)
	next = append(next, t.shards[i:]...)
	t.shards = next

	t.metrics.TableShardOperation("add", "ok")
	t.logger.Info("Table shard added",
		"lowest_row_id", shard.lowestRowID,
		"rows", shard.rows,
		"shards", len(next))
	return nil
}

func (t *Table) rejectOverlap(shard, existing *TableShard) error {
	t.metrics.TableShardOperation("add", "overlap")
	t.logger.Warn("Table shard overlaps an existing shard",
		"lowest_row_id", shard.lowestRowID,
		"highest_row_id", shard.HighestRowID(),
		"existing_lowest_row_id", existing.lowestRowID,
		"existing_highest_row_id", existing.HighestRowID())
	return colerrors.RangeOverlap("table %q: rows [%d, %d] intersect shard [%d, %d]",
		t.name, shard.lowestRowID, shard.HighestRowID(), existing.lowestRowID, existing.HighestRowID()).
		WithDetail("existing_lowest_row_id", existing.lowestRowID)
}

// RemoveTableShard removes shard by identity and reports whether it was present
func (t *Table) RemoveTableShard(shard *TableShard) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.shards {
		if s != shard {
			continue
		}
		next := make([]*TableShard, 0, len(t.shards)-1)
		next = append(next, t.shards[:i]...)
		next = append(next, t.shards[i+1:]...)
		t.shards = next

		t.metrics.TableShardOperation("remove", "ok")
		t.logger.Info("Table shard removed",
			"lowest_row_id", shard.lowestRowID,
			"rows", shard.rows,
			"shards", len(next))
		return true
	}
	t.metrics.TableShardOperation("remove", "missing")
	return false
}

// ShardForRow returns the shard covering rowID
func (t *Table) ShardForRow(rowID int64) (*TableShard, bool) {
	t.mu.RLock()
	shards := t.shards
	t.mu.RUnlock()

	i := sort.Search(len(shards), func(i int) bool { return shards[i].lowestRowID > rowID }) - 1
	if i < 0 || !shards[i].ContainsRow(rowID) {
		return nil, false
	}
	return shards[i], true
}
