// Package column stores a column of a table shard as pages of dictionary ids.
//
// Resolving a row walks two dictionaries: the page holds one page-local id per
// row, the page dictionary maps page-local ids to column value ids, and the
// shard dictionary maps column value ids to values. Pages and shards are
// immutable once built.
package column

import (
	"sort"

	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/compression"
	"github.com/soltixdb/columnstore/internal/dictionary"
)

// Page holds a run of consecutive rows
type Page struct {
	firstRowID int64
	dict       dictionary.Dictionary[int64] // page-local id -> column value id
	values     compression.CompressedArray  // page-local id per row
}

// NewPage creates a page starting at firstRowID. Every entry of values must
// be a valid id of dict, and dict must map only to non-negative column value
// ids.
func NewPage(firstRowID int64, dict dictionary.Dictionary[int64], values compression.CompressedArray) (*Page, error) {
	if firstRowID < 0 {
		return nil, colerrors.Structural("page first row id %d is negative", firstRowID)
	}
	if values.Len() == 0 {
		return nil, colerrors.Structural("page at row %d has no rows", firstRowID)
	}
	maxID, ok := dict.MaxID()
	if !ok {
		return nil, colerrors.Structural("page at row %d has an empty dictionary", firstRowID)
	}
	// page dictionaries are sorted, so local id 0 holds the smallest entry
	if lowest, err := dict.DecompressValue(0); err != nil || lowest < 0 {
		return nil, colerrors.Structural("page at row %d maps to column value id %d below 0", firstRowID, lowest)
	}
	if lo, hi := compression.Bounds(values); lo < 0 || hi > maxID {
		return nil, colerrors.Structural("page at row %d holds ids [%d, %d] outside [0, %d]", firstRowID, lo, hi, maxID)
	}
	return &Page{firstRowID: firstRowID, dict: dict, values: values}, nil
}

// FirstRowID returns the id of the first row
func (p *Page) FirstRowID() int64 { return p.firstRowID }

// Size returns the number of rows
func (p *Page) Size() int { return p.values.Len() }

// LastRowID returns the id of the last row
func (p *Page) LastRowID() int64 { return p.firstRowID + int64(p.values.Len()) - 1 }

// Dictionary returns the page dictionary
func (p *Page) Dictionary() dictionary.Dictionary[int64] { return p.dict }

// Values returns the page-local id array
func (p *Page) Values() compression.CompressedArray { return p.values }

// ResolveColumnValueID returns the column value id of the row at index
func (p *Page) ResolveColumnValueID(index int) int64 {
	return p.columnValueID(p.values.Get(index))
}

func (p *Page) columnValueID(local int64) int64 {
	// NewPage checked every local against the dictionary and every
	// dictionary entry against 0
	id, _ := p.dict.DecompressValue(local)
	return id
}

func (p *Page) sizeInBytes() int64 {
	return 24 + p.dict.ApproximateSizeInBytes() + p.values.SizeInBytes()
}

// pageSet is the page index shared by standard and constant shards
type pageSet struct {
	firstRowID int64
	rows       int64
	pages      []*Page
}

// newPageSet checks that pages cover [firstRowID, firstRowID+rows) without
// gaps or overlaps, in row order.
func newPageSet(firstRowID int64, pages []*Page) (*pageSet, error) {
	if len(pages) == 0 {
		return nil, colerrors.Structural("shard at row %d has no pages", firstRowID)
	}
	next := firstRowID
	for i, p := range pages {
		if p.firstRowID != next {
			return nil, colerrors.Structural("page %d starts at row %d, expected %d", i, p.firstRowID, next).
				WithDetail("page", i)
		}
		next = p.LastRowID() + 1
	}
	return &pageSet{firstRowID: firstRowID, rows: next - firstRowID, pages: pages}, nil
}

// find returns the index of the page holding rowID, or -1
func (ps *pageSet) find(rowID int64) int {
	// floor lookup: last page starting at or before rowID
	i := sort.Search(len(ps.pages), func(i int) bool { return ps.pages[i].firstRowID > rowID }) - 1
	if i < 0 || rowID > ps.pages[i].LastRowID() {
		return -1
	}
	return i
}

func (ps *pageSet) resolve(rowID int64) int64 {
	i := ps.find(rowID)
	if i < 0 {
		return -1
	}
	p := ps.pages[i]
	return p.ResolveColumnValueID(int(rowID - p.firstRowID))
}

func (ps *pageSet) sizeInBytes() int64 {
	var size int64
	for _, p := range ps.pages {
		size += p.sizeInBytes()
	}
	return size
}
