package dictionary

type relation uint8

const (
	relEqual relation = iota
	relGtEq
	relLtEq
)

// outcomeSink collects per-id comparison outcomes into an IDMap for one
// relation. Strategies report either an exact match or the id g of the
// smallest greater value in the other dictionary, with g = otherMax+1 when
// there is none; the smaller bound g-1 follows from it.
type outcomeSink struct {
	rel      relation
	otherMax int64
	out      *IDMap
}

func newOutcomeSink(rel relation, otherMax int64, capacity int64) *outcomeSink {
	if capacity > 1<<16 {
		capacity = 1 << 16
	}
	return &outcomeSink{
		rel:      rel,
		otherMax: otherMax,
		out:      &IDMap{ids: make([]int64, 0, capacity), others: make([]int64, 0, capacity)},
	}
}

// equal records that id matches otherID exactly
func (s *outcomeSink) equal(id, otherID int64) {
	s.out.put(id, otherID)
}

// greater records that every id in [from, to] lies strictly between the
// other dictionary's ids g-1 and g
func (s *outcomeSink) greater(from, to, g int64) {
	var encoded int64
	switch s.rel {
	case relEqual:
		return
	case relGtEq:
		if g > s.otherMax {
			return
		}
		encoded = EncodeNeighbor(g)
	case relLtEq:
		if g <= 0 {
			return
		}
		encoded = EncodeNeighbor(g - 1)
	}
	for id := from; id <= to; id++ {
		s.out.put(id, encoded)
	}
}

// gtEq records the raw result of other.FindGtEqIDOfValue for id
func (s *outcomeSink) gtEq(id, encoded int64, ok bool) {
	switch {
	case !ok:
		s.greater(id, id, s.otherMax+1)
	case encoded >= 0:
		s.equal(id, encoded)
	default:
		s.greater(id, id, DecodeNeighbor(encoded))
	}
}

func (s *outcomeSink) finish() *IDMap {
	s.out.sortIfNeeded()
	return s.out
}

// crossCompare handles the comparisons every variant shares: empty and
// constant counterparts, and the value-by-value fallback for anything else.
func crossCompare[T Value](ours, other Dictionary[T], rel relation) *IDMap {
	ourMax, ok := ours.MaxID()
	if !ok {
		return &IDMap{}
	}
	otherMax, ok := other.MaxID()
	if !ok {
		return &IDMap{}
	}
	sink := newOutcomeSink(rel, otherMax, ourMax+1)
	if c, ok := other.(*ConstantDictionary[T]); ok {
		compareWithConstant(ours, c.value, ourMax, sink)
		return sink.finish()
	}
	compareByValue(ours, other, ourMax, sink)
	return sink.finish()
}

// compareWithConstant splits our id range around the constant with a single
// lookup: ids below the split are less than it, ids above are greater.
func compareWithConstant[T Value](ours Dictionary[T], value T, ourMax int64, sink *outcomeSink) {
	id, ok := ours.FindGtEqIDOfValue(value)
	if !ok {
		sink.greater(0, ourMax, 0)
		return
	}
	split := DecodeNeighbor(id)
	sink.greater(0, split-1, 0)
	if id >= 0 {
		sink.equal(id, 0)
		split++
	}
	sink.greater(split, ourMax, 1)
}

// valueWalker is implemented by variants that can enumerate their values in
// id order faster than repeated DecompressValue calls.
type valueWalker[T Value] interface {
	walkValues(fn func(id int64, value T) bool)
}

func walkAll[T Value](d Dictionary[T], maxID int64, fn func(id int64, value T) bool) {
	if w, ok := d.(valueWalker[T]); ok {
		w.walkValues(fn)
		return
	}
	for id := int64(0); id <= maxID; id++ {
		v, err := d.DecompressValue(id)
		if err != nil {
			return
		}
		if !fn(id, v) {
			return
		}
	}
}

// compareByValue looks up each of our values in other
func compareByValue[T Value](ours, other Dictionary[T], ourMax int64, sink *outcomeSink) {
	walkAll(ours, ourMax, func(id int64, v T) bool {
		switch sink.rel {
		case relLtEq:
			if encoded, ok := other.FindLtEqIDOfValue(v); ok {
				sink.out.put(id, encoded)
			}
		default:
			encoded, ok := other.FindGtEqIDOfValue(v)
			sink.gtEq(id, encoded, ok)
		}
		return true
	})
}

// mergeSorted walks two ascending value lists in lock step
func mergeSorted[T Value](ours, other []T, sink *outcomeSink) {
	j := 0
	for i, v := range ours {
		for j < len(other) && other[j] < v {
			j++
		}
		switch {
		case j == len(other):
			sink.greater(int64(i), int64(len(ours)-1), int64(j))
			return
		case other[j] == v:
			sink.equal(int64(i), int64(j))
		default:
			sink.greater(int64(i), int64(i), int64(j))
		}
	}
}
