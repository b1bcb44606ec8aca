package column

import (
	"slices"

	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/compression"
	"github.com/soltixdb/columnstore/internal/dictionary"
)

// BuildShard loads one column of rows starting at firstRowID. It derives the
// shard dictionary from the distinct values, then splits the rows into pages
// of at most rowsPerPage rows, each with its own dictionary over the column
// value ids it uses. A column holding a single distinct value becomes a
// ConstantShard.
func BuildShard[T dictionary.Value](name string, firstRowID int64, values []T, rowsPerPage int) (TypedShard[T], error) {
	if len(values) == 0 {
		return nil, colerrors.Structural("column %q has no rows", name)
	}
	if rowsPerPage < 1 {
		return nil, colerrors.Structural("rows per page must be positive, got %d", rowsPerPage)
	}

	distinct := slices.Clone(values)
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)
	if len(distinct) == 1 {
		shard, err := NewConstantShard(name, firstRowID, int64(len(values)), distinct[0])
		if err != nil {
			return nil, err
		}
		return shard, nil
	}

	dict, err := dictionary.Build(distinct)
	if err != nil {
		return nil, err
	}

	// ids are positions in the sorted distinct values
	ids := make([]int64, len(values))
	for i, v := range values {
		pos, _ := slices.BinarySearch(distinct, v)
		ids[i] = int64(pos)
	}

	pages := make([]*Page, 0, (len(ids)+rowsPerPage-1)/rowsPerPage)
	for start := 0; start < len(ids); start += rowsPerPage {
		end := min(start+rowsPerPage, len(ids))
		page, err := buildPage(firstRowID+int64(start), ids[start:end])
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	shard, err := NewStandardShard(name, firstRowID, dict, pages)
	if err != nil {
		return nil, err
	}
	return shard, nil
}

// buildPage encodes column value ids as page-local ids
func buildPage(firstRowID int64, ids []int64) (*Page, error) {
	used := slices.Clone(ids)
	slices.Sort(used)
	used = slices.Compact(used)

	pageDict, err := dictionary.Build(used)
	if err != nil {
		return nil, err
	}
	locals := make([]int64, len(ids))
	for i, id := range ids {
		pos, _ := slices.BinarySearch(used, id)
		locals[i] = int64(pos)
	}
	return NewPage(firstRowID, pageDict, compression.Compress(locals))
}
