package column

import (
	"context"

	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/compression"
	"github.com/soltixdb/columnstore/internal/dictionary"
)

// Shard is one column of a table shard, independent of its value type
type Shard interface {
	Name() string
	ColumnType() dictionary.ColumnType
	FirstRowID() int64
	NumberOfRows() int64
	Pages() []*Page

	// ResolveColumnValueIDForRow returns the column value id of rowID, or -1
	// when the row is outside the shard.
	ResolveColumnValueIDForRow(rowID int64) int64
	// ResolveColumnValueIDsForRows resolves a batch; rows outside the shard
	// are omitted from the result.
	ResolveColumnValueIDsForRows(ctx context.Context, rowIDs []int64) (map[int64]int64, error)
	// ResolveColumnValueIDsForRowsFlat resolves a batch in input order with -1
	// for rows outside the shard.
	ResolveColumnValueIDsForRowsFlat(ctx context.Context, rowIDs []int64) ([]int64, error)

	ApproximateSizeInBytes() int64

	pageSet() *pageSet
	marshalBody(enc *codec.Encoder) error
}

// TypedShard exposes the shard dictionary
type TypedShard[T dictionary.Value] interface {
	Shard
	Dictionary() dictionary.Dictionary[T]
}

// ResolveValueForRow descends from rowID to its value. found is false when
// the row is outside the shard.
func ResolveValueForRow[T dictionary.Value](shard TypedShard[T], rowID int64) (value T, found bool, err error) {
	id := shard.ResolveColumnValueIDForRow(rowID)
	if id < 0 {
		return value, false, nil
	}
	value, err = shard.Dictionary().DecompressValue(id)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// StandardShard is a column shard with its own dictionary and pages
type StandardShard[T dictionary.Value] struct {
	name  string
	dict  dictionary.Dictionary[T]
	pages *pageSet
}

// NewStandardShard creates a shard over pages, which must cover the rows
// from firstRowID on without gaps.
func NewStandardShard[T dictionary.Value](name string, firstRowID int64, dict dictionary.Dictionary[T], pages []*Page) (*StandardShard[T], error) {
	ps, err := newPageSet(firstRowID, pages)
	if err != nil {
		return nil, err
	}
	maxID, ok := dict.MaxID()
	if !ok {
		return nil, colerrors.Structural("shard %q has an empty dictionary", name)
	}
	for i, p := range pages {
		if pm, ok := p.dict.MaxID(); ok {
			if top, _ := p.dict.DecompressValue(pm); top > maxID {
				return nil, colerrors.Structural("shard %q page %d references column value id %d beyond %d", name, i, top, maxID)
			}
		}
	}
	return &StandardShard[T]{name: name, dict: dict, pages: ps}, nil
}

func (s *StandardShard[T]) Name() string { return s.name }

func (s *StandardShard[T]) ColumnType() dictionary.ColumnType { return dictionary.ColumnTypeOf[T]() }

func (s *StandardShard[T]) FirstRowID() int64 { return s.pages.firstRowID }

func (s *StandardShard[T]) NumberOfRows() int64 { return s.pages.rows }

func (s *StandardShard[T]) Dictionary() dictionary.Dictionary[T] { return s.dict }

func (s *StandardShard[T]) Pages() []*Page { return append([]*Page(nil), s.pages.pages...) }

func (s *StandardShard[T]) ResolveColumnValueIDForRow(rowID int64) int64 {
	return s.pages.resolve(rowID)
}

func (s *StandardShard[T]) ResolveColumnValueIDsForRows(ctx context.Context, rowIDs []int64) (map[int64]int64, error) {
	return DefaultResolver().Resolve(ctx, s, rowIDs)
}

func (s *StandardShard[T]) ResolveColumnValueIDsForRowsFlat(ctx context.Context, rowIDs []int64) ([]int64, error) {
	return DefaultResolver().ResolveFlat(ctx, s, rowIDs)
}

func (s *StandardShard[T]) ApproximateSizeInBytes() int64 {
	return int64(len(s.name)) + 48 + s.dict.ApproximateSizeInBytes() + s.pages.sizeInBytes()
}

func (s *StandardShard[T]) pageSet() *pageSet { return s.pages }

// ConstantShard is a shard whose rows all hold the same value. It keeps a
// single synthesized page so resolution follows the standard path.
type ConstantShard[T dictionary.Value] struct {
	name  string
	dict  *dictionary.ConstantDictionary[T]
	pages *pageSet
}

// NewConstantShard creates a shard of rows rows holding value
func NewConstantShard[T dictionary.Value](name string, firstRowID, rows int64, value T) (*ConstantShard[T], error) {
	if rows < 1 {
		return nil, colerrors.Structural("constant shard %q needs at least one row", name)
	}
	zeros, err := compression.Repeat(0, int(rows))
	if err != nil {
		return nil, err
	}
	page, err := NewPage(firstRowID, dictionary.NewConstantDictionary[int64](0), zeros)
	if err != nil {
		return nil, err
	}
	ps, err := newPageSet(firstRowID, []*Page{page})
	if err != nil {
		return nil, err
	}
	return &ConstantShard[T]{name: name, dict: dictionary.NewConstantDictionary(value), pages: ps}, nil
}

// Value returns the value of every row
func (s *ConstantShard[T]) Value() T { return s.dict.Value() }

func (s *ConstantShard[T]) Name() string { return s.name }

func (s *ConstantShard[T]) ColumnType() dictionary.ColumnType { return dictionary.ColumnTypeOf[T]() }

func (s *ConstantShard[T]) FirstRowID() int64 { return s.pages.firstRowID }

func (s *ConstantShard[T]) NumberOfRows() int64 { return s.pages.rows }

func (s *ConstantShard[T]) Dictionary() dictionary.Dictionary[T] { return s.dict }

func (s *ConstantShard[T]) Pages() []*Page { return append([]*Page(nil), s.pages.pages...) }

func (s *ConstantShard[T]) ResolveColumnValueIDForRow(rowID int64) int64 {
	if rowID < s.pages.firstRowID || rowID >= s.pages.firstRowID+s.pages.rows {
		return -1
	}
	return 0
}

func (s *ConstantShard[T]) ResolveColumnValueIDsForRows(ctx context.Context, rowIDs []int64) (map[int64]int64, error) {
	return DefaultResolver().Resolve(ctx, s, rowIDs)
}

func (s *ConstantShard[T]) ResolveColumnValueIDsForRowsFlat(ctx context.Context, rowIDs []int64) ([]int64, error) {
	return DefaultResolver().ResolveFlat(ctx, s, rowIDs)
}

func (s *ConstantShard[T]) ApproximateSizeInBytes() int64 {
	return int64(len(s.name)) + 48 + s.dict.ApproximateSizeInBytes() + s.pages.sizeInBytes()
}

func (s *ConstantShard[T]) pageSet() *pageSet { return s.pages }
