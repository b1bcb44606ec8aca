package column

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/compression"
	"github.com/soltixdb/columnstore/internal/config"
	"github.com/soltixdb/columnstore/internal/dictionary"
	"github.com/soltixdb/columnstore/internal/logging"
	"github.com/soltixdb/columnstore/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenRowShard is a single page of 10 rows starting at row 20
func tenRowShard(t *testing.T) *StandardShard[string] {
	t.Helper()
	dict, err := dictionary.Build([]string{"x", "y", "z"})
	require.NoError(t, err)
	pageDict, err := dictionary.Build([]int64{0, 1, 2})
	require.NoError(t, err)
	page, err := NewPage(20, pageDict, compression.Compress([]int64{0, 1, 2, 0, 1, 2, 0, 1, 2, 2}))
	require.NoError(t, err)
	shard, err := NewStandardShard("c", 20, dict, []*Page{page})
	require.NoError(t, err)
	return shard
}

func pageOf(t *testing.T, firstRowID int64, locals ...int64) *Page {
	t.Helper()
	dict, err := dictionary.Build([]int64{0, 1, 2, 3})
	require.NoError(t, err)
	p, err := NewPage(firstRowID, dict, compression.Compress(locals))
	require.NoError(t, err)
	return p
}

func TestShard_SinglePageCoverage(t *testing.T) {
	shard := tenRowShard(t)

	assert.Equal(t, int64(20), shard.FirstRowID())
	assert.Equal(t, int64(10), shard.NumberOfRows())
	assert.Equal(t, int64(-1), shard.ResolveColumnValueIDForRow(15))
	assert.Equal(t, int64(2), shard.ResolveColumnValueIDForRow(29))
	assert.Equal(t, int64(-1), shard.ResolveColumnValueIDForRow(30))
	assert.Equal(t, int64(0), shard.ResolveColumnValueIDForRow(20))

	v, found, err := ResolveValueForRow[string](shard, 29)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "z", v)

	_, found, err = ResolveValueForRow[string](shard, 30)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewStandardShard_Coverage(t *testing.T) {
	dict, err := dictionary.Build([]string{"a", "b", "c", "d"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		first   int64
		pages   func() []*Page
		wantErr bool
	}{
		{
			name:  "contiguous",
			first: 0,
			pages: func() []*Page { return []*Page{pageOf(t, 0, 0, 1), pageOf(t, 2, 2, 3, 3)} },
		},
		{
			name:    "gap",
			first:   0,
			pages:   func() []*Page { return []*Page{pageOf(t, 0, 0, 1), pageOf(t, 3, 2)} },
			wantErr: true,
		},
		{
			name:    "overlap",
			first:   0,
			pages:   func() []*Page { return []*Page{pageOf(t, 0, 0, 1), pageOf(t, 1, 2)} },
			wantErr: true,
		},
		{
			name:    "starts late",
			first:   0,
			pages:   func() []*Page { return []*Page{pageOf(t, 5, 0)} },
			wantErr: true,
		},
		{
			name:    "no pages",
			first:   0,
			pages:   func() []*Page { return nil },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shard, err := NewStandardShard("col", tt.first, dict, tt.pages())
			if tt.wantErr {
				assert.True(t, errors.Is(err, colerrors.ErrStructural), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(5), shard.NumberOfRows())
		})
	}
}

func TestNewStandardShard_RejectsUnknownColumnValueIDs(t *testing.T) {
	dict, err := dictionary.Build([]string{"a", "b"})
	require.NoError(t, err)
	// page dictionary points at column value id 3
	_, err = NewStandardShard("col", 0, dict, []*Page{pageOf(t, 0, 3)})
	assert.True(t, errors.Is(err, colerrors.ErrStructural))
}

func TestNewPage_RejectsBadInput(t *testing.T) {
	dict, err := dictionary.Build([]int64{0, 1})
	require.NoError(t, err)

	_, err = NewPage(0, dict, compression.Compress([]int64{0, 2}))
	assert.True(t, errors.Is(err, colerrors.ErrStructural))

	_, err = NewPage(0, dict, compression.Compress(nil))
	assert.True(t, errors.Is(err, colerrors.ErrStructural))

	_, err = NewPage(-1, dict, compression.Compress([]int64{0}))
	assert.True(t, errors.Is(err, colerrors.ErrStructural))

	_, err = NewPage(0, dictionary.NewEmptyDictionary[int64](), compression.Compress([]int64{0}))
	assert.True(t, errors.Is(err, colerrors.ErrStructural))
}

func TestNewPage_RejectsNegativeColumnValueIDs(t *testing.T) {
	below, err := dictionary.BuildArrayDictionary([]int64{-7, 1})
	require.NoError(t, err)
	valid, err := dictionary.BuildArrayDictionary([]int64{0, 1})
	require.NoError(t, err)

	tests := []struct {
		name    string
		dict    dictionary.Dictionary[int64]
		wantErr bool
	}{
		{"array starting below zero", below, true},
		{"constant below zero", dictionary.NewConstantDictionary[int64](-3), true},
		{"constant minus one", dictionary.NewConstantDictionary[int64](-1), true},
		{"array starting at zero", valid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locals := []int64{0, 0, 0}
			if maxID, _ := tt.dict.MaxID(); maxID > 0 {
				locals = []int64{0, 1, 0}
			}
			p, err := NewPage(0, tt.dict, compression.Compress(locals))
			if tt.wantErr {
				assert.True(t, errors.Is(err, colerrors.ErrStructural), "got %v", err)
				return
			}
			require.NoError(t, err)

			shardDict, err := dictionary.Build([]string{"a", "b"})
			require.NoError(t, err)
			shard, err := NewStandardShard("col", 0, shardDict, []*Page{p})
			require.NoError(t, err)
			assert.Equal(t, []int64{0, 1, 0}, []int64{
				shard.ResolveColumnValueIDForRow(0),
				shard.ResolveColumnValueIDForRow(1),
				shard.ResolveColumnValueIDForRow(2),
			})
		})
	}
}

func randomColumn(rng *rand.Rand, rows, distinct int) []string {
	out := make([]string, rows)
	for i := range out {
		out[i] = fmt.Sprintf("v%03d", rng.Intn(distinct))
	}
	return out
}

func TestBuildShard_ResolvesEveryRow(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	t.Run("strings", func(t *testing.T) {
		values := randomColumn(rng, 1000, 50)
		shard, err := BuildShard("name", 100, values, 64)
		require.NoError(t, err)
		require.Len(t, shard.Pages(), 16)
		assert.Equal(t, dictionary.ColumnTypeString, shard.ColumnType())

		for i, want := range values {
			got, found, err := ResolveValueForRow(shard, 100+int64(i))
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, want, got, "row %d", i)
		}
		_, found, err := ResolveValueForRow(shard, 99)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("longs", func(t *testing.T) {
		values := make([]int64, 500)
		for i := range values {
			values[i] = rng.Int63n(40) - 20
		}
		shard, err := BuildShard("count", 0, values, 100)
		require.NoError(t, err)
		for i, want := range values {
			got, found, err := ResolveValueForRow(shard, int64(i))
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, want, got)
		}
	})

	t.Run("doubles", func(t *testing.T) {
		values := []float64{1.5, -2, 1.5, 0, 3.75, -2, 8}
		shard, err := BuildShard("price", 7, values, 3)
		require.NoError(t, err)
		assert.Equal(t, dictionary.ColumnTypeDouble, shard.ColumnType())
		for i, want := range values {
			got, found, err := ResolveValueForRow(shard, 7+int64(i))
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, want, got)
		}
	})
}

func TestBuildShard_SingleValueIsConstant(t *testing.T) {
	shard, err := BuildShard("region", 10, []string{"eu", "eu", "eu"}, 2)
	require.NoError(t, err)

	c, ok := shard.(*ConstantShard[string])
	require.True(t, ok)
	assert.Equal(t, "eu", c.Value())
	assert.Equal(t, int64(3), c.NumberOfRows())
	assert.Equal(t, int64(0), c.ResolveColumnValueIDForRow(12))
	assert.Equal(t, int64(-1), c.ResolveColumnValueIDForRow(13))
	assert.Equal(t, int64(-1), c.ResolveColumnValueIDForRow(9))

	flat, err := c.ResolveColumnValueIDsForRowsFlat(context.Background(), []int64{9, 10, 12, 13})
	require.NoError(t, err)
	assert.Equal(t, []int64{-1, 0, 0, -1}, flat)
}

func TestBuildShard_RejectsBadInput(t *testing.T) {
	_, err := BuildShard[string]("empty", 0, nil, 10)
	assert.True(t, errors.Is(err, colerrors.ErrStructural))

	_, err = BuildShard("pages", 0, []int64{1, 2}, 0)
	assert.True(t, errors.Is(err, colerrors.ErrStructural))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestResolver_BatchConventions(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewResolver(config.ResolverConfig{Workers: 4, FullDecompressRatio: 1.0 / 3}, metrics.NewCollector("test", reg))

	values := randomColumn(rand.New(rand.NewSource(23)), 300, 20)
	shard, err := BuildShard("name", 1000, values, 100)
	require.NoError(t, err)

	// page 0: 50 rows (full), page 1: 2 rows (point), page 2: untouched
	var rows []int64
	for i := int64(0); i < 50; i++ {
		rows = append(rows, 1000+i)
	}
	rows = append(rows, 1150, 1199, 5, 2000)

	ctx := context.Background()
	resolved, err := r.Resolve(ctx, shard, rows)
	require.NoError(t, err)
	assert.Len(t, resolved, 52)
	_, ok := resolved[5]
	assert.False(t, ok)

	flat, err := r.ResolveFlat(ctx, shard, rows)
	require.NoError(t, err)
	require.Len(t, flat, len(rows))
	assert.Equal(t, int64(-1), flat[len(flat)-1])
	assert.Equal(t, int64(-1), flat[len(flat)-2])

	for i, row := range rows[:52] {
		want := shard.ResolveColumnValueIDForRow(row)
		assert.Equal(t, want, flat[i])
		assert.Equal(t, want, resolved[row])
	}

	assert.Equal(t, float64(2), counterValue(t, reg, "test_page_reads_total", "strategy", metrics.StrategyFull))
	assert.Equal(t, float64(2), counterValue(t, reg, "test_page_reads_total", "strategy", metrics.StrategyPoint))
	assert.Equal(t, float64(104), counterValue(t, reg, "test_rows_resolved_total", "outcome", "found"))
	assert.Equal(t, float64(4), counterValue(t, reg, "test_rows_resolved_total", "outcome", "missing"))
}

func TestResolver_CancelledContext(t *testing.T) {
	shard := tenRowShard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := shard.ResolveColumnValueIDsForRows(ctx, []int64{20, 21})
	assert.True(t, errors.Is(err, context.Canceled))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines(t *testing.T) []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestResolver_PropagatesQueryContext(t *testing.T) {
	var buf syncBuffer
	logger := logging.NewWithWriter(&buf, zerolog.DebugLevel)
	ctx := logging.WithLogger(logging.WithQueryID(context.Background(), "q-1"), logger)

	values := randomColumn(rand.New(rand.NewSource(29)), 40, 5)
	shard, err := BuildShard("name", 0, values, 10)
	require.NoError(t, err)

	r := NewResolver(config.ResolverConfig{Workers: 2}, metrics.NewCollector("ctx", nil))
	_, err = r.Resolve(ctx, shard, []int64{1, 15, 25, 35})
	require.NoError(t, err)

	lines := buf.lines(t)
	require.Len(t, lines, 4)
	executions := map[interface{}]bool{}
	for _, l := range lines {
		assert.Equal(t, "q-1", l["query_id"])
		assert.NotEmpty(t, l["execution_id"])
		assert.Equal(t, "name", l["column"])
		executions[l["execution_id"]] = true
	}
	assert.Len(t, executions, 4)
}

func TestMarshal_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	standard, err := BuildShard("name", 50, randomColumn(rng, 250, 30), 40)
	require.NoError(t, err)
	constant, err := BuildShard("flag", 50, []int64{1, 1, 1, 1}, 40)
	require.NoError(t, err)

	for _, s := range []Shard{standard, constant} {
		t.Run(s.Name(), func(t *testing.T) {
			enc := codec.NewEncoder(256)
			require.NoError(t, Marshal(enc, s))

			dec := codec.NewDecoder(enc.Bytes())
			got, err := Unmarshal(dec)
			require.NoError(t, err)
			require.NoError(t, dec.Done())

			assert.Equal(t, s.Name(), got.Name())
			assert.Equal(t, s.ColumnType(), got.ColumnType())
			assert.Equal(t, s.FirstRowID(), got.FirstRowID())
			assert.Equal(t, s.NumberOfRows(), got.NumberOfRows())
			for row := s.FirstRowID() - 1; row <= s.FirstRowID()+s.NumberOfRows(); row++ {
				assert.Equal(t, s.ResolveColumnValueIDForRow(row), got.ResolveColumnValueIDForRow(row))
			}

			again := codec.NewEncoder(256)
			require.NoError(t, Marshal(again, got))
			assert.Equal(t, enc.Bytes(), again.Bytes())
		})
	}
}

func TestUnmarshal_RejectsCorruptHeader(t *testing.T) {
	shard := tenRowShard(t)
	enc := codec.NewEncoder(64)
	require.NoError(t, Marshal(enc, shard))
	data := enc.Bytes()

	for cut := 0; cut < len(data); cut++ {
		_, err := Unmarshal(codec.NewDecoder(data[:cut]))
		require.Error(t, err, "cut at %d", cut)
	}

	// header claims 11 rows for a 10-row page
	bad := codec.NewEncoder(64)
	bad.String("c")
	bad.Uvarint(uint64(dictionary.ColumnTypeString))
	bad.Varint(20)
	bad.Varint(11)
	require.NoError(t, shard.marshalBody(bad))
	_, err := Unmarshal(codec.NewDecoder(bad.Bytes()))
	assert.True(t, errors.Is(err, colerrors.ErrStructural))
}

func TestUnmarshal_RejectsNegativePageDictionary(t *testing.T) {
	shardDict, err := dictionary.Build([]int64{10, 20})
	require.NoError(t, err)
	pageDict, err := dictionary.BuildArrayDictionary([]int64{-7, 1})
	require.NoError(t, err)

	// a standard long column of 3 rows whose only page maps local 0 to -7
	enc := codec.NewEncoder(64)
	enc.String("c")
	enc.Uvarint(uint64(dictionary.ColumnTypeLong))
	enc.Varint(0)
	enc.Varint(3)
	enc.Uvarint(shardStandard)
	require.NoError(t, enc.Child(func(e *codec.Encoder) error { return dictionary.Marshal(e, shardDict) }))
	enc.Uvarint(1)
	require.NoError(t, enc.Child(func(e *codec.Encoder) error {
		e.Varint(0)
		if err := e.Child(func(e *codec.Encoder) error { return dictionary.Marshal[int64](e, pageDict) }); err != nil {
			return err
		}
		return compression.MarshalArray(e, compression.Compress([]int64{0, 1, 0}))
	}))

	_, err = Unmarshal(codec.NewDecoder(enc.Bytes()))
	assert.True(t, errors.Is(err, colerrors.ErrStructural), "got %v", err)
}

// every in-shard row resolves to an id of the shard dictionary, and every
// page-local id resolves through its page dictionary
func TestShard_ResolvedIDsStayInDictionary(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	built, err := BuildShard("name", 5, randomColumn(rng, 300, 25), 32)
	require.NoError(t, err)

	enc := codec.NewEncoder(256)
	require.NoError(t, Marshal(enc, built))
	decoded, err := Unmarshal(codec.NewDecoder(enc.Bytes()))
	require.NoError(t, err)

	for _, s := range []Shard{built, decoded} {
		typed, ok := s.(TypedShard[string])
		require.True(t, ok)
		maxID, ok := typed.Dictionary().MaxID()
		require.True(t, ok)

		for row := s.FirstRowID(); row < s.FirstRowID()+s.NumberOfRows(); row++ {
			id := s.ResolveColumnValueIDForRow(row)
			require.GreaterOrEqual(t, id, int64(0), "row %d", row)
			require.LessOrEqual(t, id, maxID, "row %d", row)
		}
		assert.Equal(t, int64(-1), s.ResolveColumnValueIDForRow(s.FirstRowID()-1))
		assert.Equal(t, int64(-1), s.ResolveColumnValueIDForRow(s.FirstRowID()+s.NumberOfRows()))

		for _, p := range s.Pages() {
			locals := p.Values().Decompress()
			ids, err := p.Dictionary().DecompressValues(locals)
			require.NoError(t, err)
			for i, id := range ids {
				require.Equal(t, id, p.ResolveColumnValueID(i))
			}
		}
	}
}
