// Package table groups column shards into table shards and table shards into
// tables. A table shard is a horizontal slice of a table: every column of it
// covers the same row range.
package table

import (
	"maps"
	"sort"

	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/column"
	"github.com/soltixdb/columnstore/internal/dictionary"
)

// TableShard is an immutable set of column shards over one row range
type TableShard struct {
	tableName   string
	lowestRowID int64
	rows        int64

	strings map[string]column.TypedShard[string]
	longs   map[string]column.TypedShard[int64]
	doubles map[string]column.TypedShard[float64]
	order   []string // column names, sorted
}

// NewTableShard checks that the columns have unique names and share one row
// range, then files them by column type.
func NewTableShard(tableName string, columns ...column.Shard) (*TableShard, error) {
	if len(columns) == 0 {
		return nil, colerrors.Structural("table shard of %q has no columns", tableName)
	}

	ts := &TableShard{
		tableName:   tableName,
		lowestRowID: columns[0].FirstRowID(),
		rows:        columns[0].NumberOfRows(),
		strings:     make(map[string]column.TypedShard[string]),
		longs:       make(map[string]column.TypedShard[int64]),
		doubles:     make(map[string]column.TypedShard[float64]),
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		name := c.Name()
		if seen[name] {
			return nil, colerrors.Structural("table shard of %q has duplicate column %q", tableName, name)
		}
		seen[name] = true

		if c.FirstRowID() != ts.lowestRowID || c.NumberOfRows() != ts.rows {
			return nil, colerrors.Structural("column %q covers rows %d+%d, table shard covers %d+%d",
				name, c.FirstRowID(), c.NumberOfRows(), ts.lowestRowID, ts.rows).
				WithDetail("column", name)
		}

		var ok bool
		switch c.ColumnType() {
		case dictionary.ColumnTypeString:
			ts.strings[name], ok = c.(column.TypedShard[string])
		case dictionary.ColumnTypeLong:
			ts.longs[name], ok = c.(column.TypedShard[int64])
		case dictionary.ColumnTypeDouble:
			ts.doubles[name], ok = c.(column.TypedShard[float64])
		}
		if !ok {
			return nil, colerrors.Structural("column %q has unsupported type %s", name, c.ColumnType())
		}
		ts.order = append(ts.order, name)
	}
	sort.Strings(ts.order)
	return ts, nil
}

// TableName returns the name of the owning table
func (ts *TableShard) TableName() string { return ts.tableName }

// LowestRowID returns the first row covered by the shard
func (ts *TableShard) LowestRowID() int64 { return ts.lowestRowID }

// NumberOfRows returns the number of rows in the shard
func (ts *TableShard) NumberOfRows() int64 { return ts.rows }

// HighestRowID returns the last row covered by the shard
func (ts *TableShard) HighestRowID() int64 { return ts.lowestRowID + ts.rows - 1 }

// ContainsRow reports whether rowID falls in the shard
func (ts *TableShard) ContainsRow(rowID int64) bool {
	return rowID >= ts.lowestRowID && rowID < ts.lowestRowID+ts.rows
}

// StringColumns returns the STRING column shards by name
func (ts *TableShard) StringColumns() map[string]column.TypedShard[string] { return maps.Clone(ts.strings) }

// LongColumns returns the LONG column shards by name
func (ts *TableShard) LongColumns() map[string]column.TypedShard[int64] { return maps.Clone(ts.longs) }

// DoubleColumns returns the DOUBLE column shards by name
func (ts *TableShard) DoubleColumns() map[string]column.TypedShard[float64] { return maps.Clone(ts.doubles) }

// ColumnNames returns all column names in sorted order
func (ts *TableShard) ColumnNames() []string { return append([]string(nil), ts.order...) }

// Column looks up a column of any type
func (ts *TableShard) Column(name string) (column.Shard, bool) {
	if c, ok := ts.strings[name]; ok {
		return c, true
	}
	if c, ok := ts.longs[name]; ok {
		return c, true
	}
	if c, ok := ts.doubles[name]; ok {
		return c, true
	}
	return nil, false
}

// Columns returns every column shard in name order
func (ts *TableShard) Columns() []column.Shard {
	out := make([]column.Shard, 0, len(ts.order))
	for _, name := range ts.order {
		c, _ := ts.Column(name)
		out = append(out, c)
	}
	return out
}

// ResolveColumnValueIDForRow resolves rowID in the named column. It returns
// -1 when the row is outside the shard and NotFound for an unknown column.
func (ts *TableShard) ResolveColumnValueIDForRow(columnName string, rowID int64) (int64, error) {
	c, ok := ts.Column(columnName)
	if !ok {
		return -1, colerrors.NotFound("table shard of %q has no column %q", ts.tableName, columnName)
	}
	return c.ResolveColumnValueIDForRow(rowID), nil
}

// ApproximateSizeInBytes sums the sizes of all columns
func (ts *TableShard) ApproximateSizeInBytes() int64 {
	size := int64(len(ts.tableName)) + 64
	for _, c := range ts.Columns() {
		size += c.ApproximateSizeInBytes()
	}
	return size
}
