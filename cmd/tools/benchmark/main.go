package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soltixdb/columnstore/internal/column"
	"github.com/soltixdb/columnstore/internal/config"
	"github.com/soltixdb/columnstore/internal/dictionary"
	"github.com/soltixdb/columnstore/internal/logging"
	"github.com/soltixdb/columnstore/internal/metrics"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	Rows        int
	Distinct    int
	RowsPerPage int
	BatchSize   int
	Workers     int
	Duration    time.Duration
	DictSize    int
	Seed        int64
	SaveResults bool
}

// Metrics holds latencies collected by the workers
type Metrics struct {
	Latencies  []float64
	Errors     int64
	Success    int64
	FirstError string
	mu         sync.Mutex
}

func (m *Metrics) record(latency time.Duration, err error) {
	if err != nil {
		if atomic.AddInt64(&m.Errors, 1) == 1 {
			m.mu.Lock()
			m.FirstError = err.Error()
			m.mu.Unlock()
		}
		return
	}
	atomic.AddInt64(&m.Success, 1)
	m.mu.Lock()
	m.Latencies = append(m.Latencies, float64(latency.Microseconds())/1000)
	m.mu.Unlock()
}

// Result represents benchmark results
type Result struct {
	Operation  string
	TotalOps   int64
	SuccessOps int64
	ErrorOps   int64
	Duration   time.Duration
	Throughput float64 // ops/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	ErrorMsg   string  // First error message
}

func main() {
	cfg := BenchmarkConfig{}
	flag.IntVar(&cfg.Rows, "rows", 1_000_000, "Rows in the synthetic column")
	flag.IntVar(&cfg.Distinct, "distinct", 5000, "Distinct values in the column")
	flag.IntVar(&cfg.RowsPerPage, "rows-per-page", 0, "Rows per page (default: store.rows_per_page)")
	flag.IntVar(&cfg.BatchSize, "batch-size", 1000, "Rows per batch resolution call")
	flag.IntVar(&cfg.Workers, "workers", 4, "Concurrent batch callers")
	flag.DurationVar(&cfg.Duration, "duration", 10*time.Second, "Resolution phase duration")
	flag.IntVar(&cfg.DictSize, "dict-size", 100_000, "Values per dictionary in the comparison phase")
	flag.Int64Var(&cfg.Seed, "seed", 1, "Random seed")
	flag.BoolVar(&cfg.SaveResults, "save", false, "Save results to benchmark_results/")
	configPath := flag.String("config", "", "Config file (default: search ./columnstore.yaml)")
	flag.Parse()

	appCfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.RowsPerPage < 1 {
		cfg.RowsPerPage = appCfg.Store.RowsPerPage
	}
	logger, err := logging.NewFromConfig(appCfg.Logging)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(appCfg.Metrics.Namespace, reg)
	column.SetDefaultResolver(column.NewResolver(appCfg.Resolver, collector))

	fmt.Printf("=== Columnstore Benchmark Tool ===\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Rows: %d\n", cfg.Rows)
	fmt.Printf("  Distinct: %d\n", cfg.Distinct)
	fmt.Printf("  Rows Per Page: %d\n", cfg.RowsPerPage)
	fmt.Printf("  Batch Size: %d\n", cfg.BatchSize)
	fmt.Printf("  Workers: %d\n", cfg.Workers)
	fmt.Printf("  Resolver Workers: %d\n", appCfg.Resolver.Workers)
	fmt.Printf("  Full Decompress Ratio: %.3f\n", appCfg.Resolver.FullDecompressRatio)
	fmt.Printf("  Duration: %s\n", cfg.Duration)
	fmt.Printf("  Dictionary Size: %d\n", cfg.DictSize)
	fmt.Printf("\n")

	rng := rand.New(rand.NewSource(cfg.Seed))

	buildStart := time.Now()
	shard, err := column.BuildShard("bench", 0, generateColumn(rng, cfg.Rows, cfg.Distinct), cfg.RowsPerPage)
	if err != nil {
		fmt.Printf("Failed to build shard: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Built shard in %s: %d pages, ~%d bytes\n\n",
		time.Since(buildStart).Round(time.Millisecond), len(shard.Pages()), shard.ApproximateSizeInBytes())

	resolveResult := runResolution(cfg, shard)
	displayResult(resolveResult)
	fmt.Printf("\nPage reads: full=%.0f point=%.0f\n\n",
		counterValue(reg, "page_reads_total", "strategy", metrics.StrategyFull),
		counterValue(reg, "page_reads_total", "strategy", metrics.StrategyPoint))

	compareResults := runComparisons(cfg, rng)
	for _, r := range compareResults {
		displayResult(r)
		fmt.Printf("\n")
	}

	if cfg.SaveResults {
		saveResults(cfg, append([]Result{resolveResult}, compareResults...))
	}
}

func generateColumn(rng *rand.Rand, rows, distinct int) []string {
	// a skewed distribution gives pages of varying dictionary sizes
	values := make([]string, rows)
	for i := range values {
		n := int(math.Abs(rng.NormFloat64()) * float64(distinct) / 3)
		values[i] = fmt.Sprintf("device-%06d", n%distinct)
	}
	return values
}

func runResolution(cfg BenchmarkConfig, shard column.Shard) Result {
	var m Metrics
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			rows := make([]int64, cfg.BatchSize)
			for ctx.Err() == nil {
				for i := range rows {
					rows[i] = rng.Int63n(int64(cfg.Rows))
				}
				qctx, done := logging.StartQuery(ctx, nil, "resolve")
				opStart := time.Now()
				_, err := shard.ResolveColumnValueIDsForRowsFlat(qctx, rows)
				done(err)
				if ctx.Err() != nil {
					return
				}
				m.record(time.Since(opStart), err)
			}
		}(cfg.Seed + int64(w))
	}
	wg.Wait()

	return calculateResult("Batch resolve", m.Latencies, m.Success, m.Errors, time.Since(start), m.FirstError)
}

// comparisonDictionaries builds two overlapping sorted value sets
func comparisonDictionaries(rng *rand.Rand, size int) ([]string, []string) {
	pick := func(offset int) []string {
		seen := make(map[string]bool, size)
		out := make([]string, 0, size)
		for len(out) < size {
			v := fmt.Sprintf("key-%08d", offset+rng.Intn(size*3))
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
		sort.Strings(out)
		return out
	}
	return pick(0), pick(size)
}

type opaque struct {
	dictionary.Dictionary[string]
}

func runComparisons(cfg BenchmarkConfig, rng *rand.Rand) []Result {
	a, b := comparisonDictionaries(rng, cfg.DictSize)
	left, err := dictionary.Build(a)
	if err != nil {
		fmt.Printf("Failed to build dictionary: %v\n", err)
		os.Exit(1)
	}
	right, err := dictionary.Build(b)
	if err != nil {
		fmt.Printf("Failed to build dictionary: %v\n", err)
		os.Exit(1)
	}

	const rounds = 5
	run := func(name string, fn func() *dictionary.IDMap) Result {
		var latencies []float64
		start := time.Now()
		for i := 0; i < rounds; i++ {
			opStart := time.Now()
			fn()
			latencies = append(latencies, float64(time.Since(opStart).Microseconds())/1000)
		}
		return calculateResult(name, latencies, rounds, 0, time.Since(start), "")
	}

	// wrapping the other side hides its variant and forces per-value lookups
	slow := opaque{right}
	return []Result{
		run("FindEqualIDs (trie walk)", func() *dictionary.IDMap { return left.FindEqualIDs(right) }),
		run("FindGtEqIDs (trie walk)", func() *dictionary.IDMap { return left.FindGtEqIDs(right) }),
		run("FindLtEqIDs (trie walk)", func() *dictionary.IDMap { return left.FindLtEqIDs(right) }),
		run("FindGtEqIDs (per value)", func() *dictionary.IDMap { return left.FindGtEqIDs(slow) }),
	}
}

func counterValue(reg *prometheus.Registry, suffix, label, value string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return 0
	}
	for _, f := range families {
		if !strings.HasSuffix(f.GetName(), suffix) {
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

func calculateResult(operation string, latencies []float64, success, errors int64, duration time.Duration, errorMsg string) Result {
	if len(latencies) == 0 {
		return Result{
			Operation: operation,
			TotalOps:  success + errors,
			ErrorMsg:  errorMsg,
		}
	}

	// Sort for percentiles
	sort.Float64s(latencies)

	result := Result{
		Operation:  operation,
		TotalOps:   success + errors,
		SuccessOps: success,
		ErrorOps:   errors,
		Duration:   duration,
		Throughput: float64(success) / duration.Seconds(),
		MinLatency: latencies[0],
		MaxLatency: latencies[len(latencies)-1],
		P50Latency: percentile(latencies, 50),
		P95Latency: percentile(latencies, 95),
		P99Latency: percentile(latencies, 99),
		ErrorMsg:   errorMsg,
	}

	var sum float64
	for _, lat := range latencies {
		sum += lat
	}
	result.AvgLatency = sum / float64(len(latencies))

	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted)) * p / 100.0))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func displayResult(r Result) {
	writeResult(os.Stdout, r)
}

func writeResult(f *os.File, r Result) {
	_, _ = fmt.Fprintf(f, "=== %s ===\n", r.Operation)
	_, _ = fmt.Fprintf(f, "Total Operations: %d\n", r.TotalOps)
	if r.TotalOps > 0 {
		_, _ = fmt.Fprintf(f, "Success:          %d (%.2f%%)\n", r.SuccessOps, float64(r.SuccessOps)/float64(r.TotalOps)*100)
		_, _ = fmt.Fprintf(f, "Errors:           %d (%.2f%%)\n", r.ErrorOps, float64(r.ErrorOps)/float64(r.TotalOps)*100)
	}
	_, _ = fmt.Fprintf(f, "Duration:         %s\n", r.Duration)
	_, _ = fmt.Fprintf(f, "Throughput:       %.2f ops/sec\n", r.Throughput)
	if r.ErrorOps > 0 && len(r.ErrorMsg) > 0 {
		_, _ = fmt.Fprintf(f, "First Error:      %s\n", r.ErrorMsg)
	}
	_, _ = fmt.Fprintf(f, "\nLatency (ms):\n")
	_, _ = fmt.Fprintf(f, "  Min:  %.3f\n", r.MinLatency)
	_, _ = fmt.Fprintf(f, "  Avg:  %.3f\n", r.AvgLatency)
	_, _ = fmt.Fprintf(f, "  P50:  %.3f\n", r.P50Latency)
	_, _ = fmt.Fprintf(f, "  P95:  %.3f\n", r.P95Latency)
	_, _ = fmt.Fprintf(f, "  P99:  %.3f\n", r.P99Latency)
	_, _ = fmt.Fprintf(f, "  Max:  %.3f\n", r.MaxLatency)
}

func saveResults(cfg BenchmarkConfig, results []Result) {
	if err := os.MkdirAll("benchmark_results", 0o755); err != nil {
		fmt.Printf("Failed to create result directory: %v\n", err)
		return
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("benchmark_results/columnstore_benchmark_%s.txt", timestamp)

	f, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Failed to create result file: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintf(f, "=== Columnstore Benchmark Results ===\n")
	_, _ = fmt.Fprintf(f, "Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(f, "Configuration:\n")
	_, _ = fmt.Fprintf(f, "  Rows: %d\n", cfg.Rows)
	_, _ = fmt.Fprintf(f, "  Distinct: %d\n", cfg.Distinct)
	_, _ = fmt.Fprintf(f, "  Rows Per Page: %d\n", cfg.RowsPerPage)
	_, _ = fmt.Fprintf(f, "  Batch Size: %d\n", cfg.BatchSize)
	_, _ = fmt.Fprintf(f, "  Workers: %d\n", cfg.Workers)
	_, _ = fmt.Fprintf(f, "  Dictionary Size: %d\n", cfg.DictSize)
	_, _ = fmt.Fprintf(f, "\n")

	for _, r := range results {
		writeResult(f, r)
		_, _ = fmt.Fprintf(f, "\n")
	}

	fmt.Printf("\nResults saved to: %s\n", filename)
}
