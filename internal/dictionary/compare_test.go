package dictionary

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// opaque hides the concrete variant so comparisons take the value-by-value path
type opaque[T Value] struct {
	Dictionary[T]
}

// expectedMaps computes the cross-dictionary maps from single-value lookups
func expectedMaps[T Value](values []T, other Dictionary[T]) (equal, gtEq, ltEq map[int64]int64) {
	equal, gtEq, ltEq = map[int64]int64{}, map[int64]int64{}, map[int64]int64{}
	for i, v := range values {
		id := int64(i)
		if enc, ok := other.FindGtEqIDOfValue(v); ok {
			gtEq[id] = enc
			if enc >= 0 {
				equal[id] = enc
			}
		}
		if enc, ok := other.FindLtEqIDOfValue(v); ok {
			ltEq[id] = enc
		}
	}
	return equal, gtEq, ltEq
}

func assertCrossMaps[T Value](t *testing.T, ours Dictionary[T], values []T, other Dictionary[T]) {
	t.Helper()
	equal, gtEq, ltEq := expectedMaps(values, other)
	assert.Equal(t, equal, ours.FindEqualIDs(other).Map(), "equal")
	assert.Equal(t, gtEq, ours.FindGtEqIDs(other).Map(), "gtEq")
	assert.Equal(t, ltEq, ours.FindLtEqIDs(other).Map(), "ltEq")
}

func TestFindGtEqIDs_TwoTries(t *testing.T) {
	a := mustTrie(t, "a", "c")
	b := mustTrie(t, "b", "c")

	assert.Equal(t, map[int64]int64{0: -1, 1: 1}, a.FindGtEqIDs(b).Map())
	assert.Equal(t, map[int64]int64{1: 1}, a.FindEqualIDs(b).Map())
	assert.Equal(t, map[int64]int64{1: 1}, a.FindLtEqIDs(b).Map())
	assert.Equal(t, map[int64]int64{0: -1, 1: 1}, b.FindLtEqIDs(a).Map())
	assert.Equal(t, map[int64]int64{0: -2, 1: 1}, b.FindGtEqIDs(a).Map())
}

func TestFindEqualIDs_Reflexive(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := randomStrings(rng, 120)
	d := mustTrie(t, values...)

	m := d.FindEqualIDs(d)
	require.Equal(t, len(values), m.Len())
	m.Range(func(id, other int64) bool {
		assert.Equal(t, id, other)
		return true
	})

	ints, err := BuildArrayDictionary([]int64{-3, 1, 8, 40})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{0: 0, 1: 1, 2: 2, 3: 3}, ints.FindEqualIDs(ints).Map())
}

func TestTrieComparison_MatchesLookups(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for round := 0; round < 30; round++ {
		ours := randomStrings(rng, 2+rng.Intn(50))
		theirs := randomStrings(rng, 2+rng.Intn(50))
		a := mustTrie(t, ours...)
		b := mustTrie(t, theirs...)

		assertCrossMaps[string](t, a, ours, b)
		assertCrossMaps[string](t, a, ours, opaque[string]{b})
	}
}

func TestArrayComparison_MatchesLookups(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	sortedInts := func(n int) []int64 {
		seen := map[int64]bool{}
		for len(seen) < n {
			seen[rng.Int63n(200)-100] = true
		}
		out := make([]int64, 0, n)
		for v := int64(-100); v < 100; v++ {
			if seen[v] {
				out = append(out, v)
			}
		}
		return out
	}

	for round := 0; round < 30; round++ {
		ours := sortedInts(2 + rng.Intn(40))
		theirs := sortedInts(2 + rng.Intn(40))
		a, err := BuildArrayDictionary(ours)
		require.NoError(t, err)
		b, err := BuildArrayDictionary(theirs)
		require.NoError(t, err)

		assertCrossMaps[int64](t, a, ours, b)
		assertCrossMaps[int64](t, a, ours, opaque[int64]{b})

		fours := make([]float64, len(ours))
		for i, v := range ours {
			fours[i] = float64(v) / 4
		}
		ftheirs := make([]float64, len(theirs))
		for i, v := range theirs {
			ftheirs[i] = float64(v) / 4
		}
		fa, err := BuildArrayDictionary(fours)
		require.NoError(t, err)
		fb, err := BuildArrayDictionary(ftheirs)
		require.NoError(t, err)
		assertCrossMaps[float64](t, fa, fours, fb)
	}
}

func TestComparison_WithConstant(t *testing.T) {
	d := mustTrie(t, "a", "c", "e")

	c := NewConstantDictionary("c")
	assert.Equal(t, map[int64]int64{1: 0}, d.FindEqualIDs(c).Map())
	assert.Equal(t, map[int64]int64{0: -1, 1: 0}, d.FindGtEqIDs(c).Map())
	assert.Equal(t, map[int64]int64{1: 0, 2: -1}, d.FindLtEqIDs(c).Map())

	b := NewConstantDictionary("b")
	assert.Empty(t, d.FindEqualIDs(b).Map())
	assert.Equal(t, map[int64]int64{0: -1}, d.FindGtEqIDs(b).Map())
	assert.Equal(t, map[int64]int64{1: -1, 2: -1}, d.FindLtEqIDs(b).Map())

	assertCrossMaps[string](t, d, []string{"a", "c", "e"}, NewConstantDictionary("z"))
	assertCrossMaps[string](t, d, []string{"a", "c", "e"}, NewConstantDictionary(""))
}

func TestComparison_ConstantAgainstOthers(t *testing.T) {
	c := NewConstantDictionary[int64](10)
	arr, err := BuildArrayDictionary([]int64{5, 10, 20})
	require.NoError(t, err)

	assertCrossMaps[int64](t, c, []int64{10}, arr)
	assertCrossMaps[int64](t, arr, []int64{5, 10, 20}, c)
	assertCrossMaps[int64](t, c, []int64{10}, NewConstantDictionary[int64](11))
	assertCrossMaps[int64](t, c, []int64{10}, NewConstantDictionary[int64](10))
}

func TestComparison_Empty(t *testing.T) {
	d := mustTrie(t, "a", "b")
	e := NewEmptyDictionary[string]()

	assert.Equal(t, 0, d.FindEqualIDs(e).Len())
	assert.Equal(t, 0, d.FindGtEqIDs(e).Len())
	assert.Equal(t, 0, d.FindLtEqIDs(e).Len())
	assert.Equal(t, 0, e.FindGtEqIDs(d).Len())
	assert.Equal(t, 0, e.FindLtEqIDs(e).Len())
}

func TestComparison_GtEqLtEqConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	ours := randomStrings(rng, 60)
	theirs := randomStrings(rng, 45)
	a := mustTrie(t, ours...)
	b := mustTrie(t, theirs...)
	otherMax, _ := b.MaxID()

	gtEq := a.FindGtEqIDs(b)
	ltEq := a.FindLtEqIDs(b)
	for id := range ours {
		g, hasG := gtEq.Get(int64(id))
		l, hasL := ltEq.Get(int64(id))
		switch {
		case hasG && g >= 0:
			assert.Equal(t, g, l, "exact match must agree")
		case hasG:
			n := DecodeNeighbor(g)
			if n == 0 {
				assert.False(t, hasL)
			} else {
				assert.Equal(t, EncodeNeighbor(n-1), l)
			}
		default:
			assert.True(t, hasL)
			assert.Equal(t, EncodeNeighbor(otherMax), l)
		}
	}
}

func TestIDMap_Accessors(t *testing.T) {
	d := mustTrie(t, "a", "c", "e")
	m := d.FindGtEqIDs(mustTrie(t, "b", "c"))

	assert.Equal(t, []int64{0, 1}, m.IDs())
	v, ok := m.Get(0)
	assert.True(t, ok)
	assert.Equal(t, int64(-1), v)
	_, ok = m.Get(2)
	assert.False(t, ok)

	visited := 0
	m.Range(func(id, other int64) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestIDMap_SortsOutOfOrderInput(t *testing.T) {
	m := &IDMap{}
	m.put(5, 1)
	m.put(2, 7)
	m.put(9, -3)
	m.sortIfNeeded()

	assert.Equal(t, []int64{2, 5, 9}, m.IDs())
	v, ok := m.Get(9)
	assert.True(t, ok)
	assert.Equal(t, int64(-3), v)
}
