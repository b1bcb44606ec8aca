package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soltixdb/columnstore/internal/column"
	"github.com/soltixdb/columnstore/internal/config"
	"github.com/soltixdb/columnstore/internal/dictionary"
	"github.com/soltixdb/columnstore/internal/logging"
	"github.com/soltixdb/columnstore/internal/metrics"
	"github.com/soltixdb/columnstore/internal/table"
)

// rows resolved per batch call
const chunkSize = 4096

func main() {
	input := flag.String("input", "", "Serialized table shard")
	output := flag.String("output", "", "Output CSV file (default: <input>.csv)")
	layout := flag.Bool("layout", false, "Print dictionaries and pages instead of exporting")
	configPath := flag.String("config", "", "Config file (default: search ./columnstore.yaml)")
	flag.Parse()

	if *input == "" {
		log.Fatal("Error: -input parameter is required")
	}
	if *output == "" {
		*output = strings.TrimSuffix(*input, ".shard") + ".csv"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v\n", err)
	}
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		log.Fatalf("Error creating logger: %v\n", err)
	}
	logging.SetGlobal(logger)
	collector := metrics.Init(cfg.Metrics, prometheus.NewRegistry())
	column.SetDefaultResolver(column.NewResolver(cfg.Resolver, collector))

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Error reading %s: %v\n", *input, err)
	}
	ts, err := table.UnmarshalShard(data)
	if err != nil {
		log.Fatalf("Error decoding table shard: %v\n", err)
	}

	if *layout {
		printLayout(ts)
		return
	}

	ctx, done := logging.StartQuery(context.Background(), logger, "shard_to_csv")
	err = exportToCSV(ctx, *output, ts)
	done(err)
	if err != nil {
		log.Fatalf("Error exporting to CSV: %v\n", err)
	}
	fmt.Printf("Successfully exported %d rows to: %s\n", ts.NumberOfRows(), *output)
}

func printLayout(ts *table.TableShard) {
	fmt.Printf("Table:  %s\n", ts.TableName())
	fmt.Printf("Rows:   [%d, %d] (%d)\n", ts.LowestRowID(), ts.HighestRowID(), ts.NumberOfRows())
	fmt.Printf("Size:   ~%d bytes\n\n", ts.ApproximateSizeInBytes())

	for _, c := range ts.Columns() {
		fmt.Printf("Column %q (%s)\n", c.Name(), c.ColumnType())
		switch s := c.(type) {
		case column.TypedShard[string]:
			printDictionary(s.Dictionary())
		case column.TypedShard[int64]:
			printDictionary(s.Dictionary())
		case column.TypedShard[float64]:
			printDictionary(s.Dictionary())
		}
		for i, p := range c.Pages() {
			maxID, _ := p.Dictionary().MaxID()
			fmt.Printf("  page %-4d rows [%d, %d]  dict %s/%d  values %s\n",
				i, p.FirstRowID(), p.LastRowID(), p.Dictionary().Kind(), maxID+1, p.Values().Codec())
		}
	}
}

func printDictionary[T dictionary.Value](d dictionary.Dictionary[T]) {
	maxID, ok := d.MaxID()
	if !ok {
		fmt.Printf("  dictionary %s (empty)\n", d.Kind())
		return
	}
	first, _ := d.DecompressValue(0)
	last, _ := d.DecompressValue(maxID)
	fmt.Printf("  dictionary %s, %d values [%v .. %v], ~%d bytes\n", d.Kind(), maxID+1, first, last, d.ApproximateSizeInBytes())
}

func exportToCSV(ctx context.Context, filename string, ts *table.TableShard) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"row_id"}, ts.ColumnNames()...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	columns := ts.Columns()
	for start := ts.LowestRowID(); start <= ts.HighestRowID(); start += chunkSize {
		end := min(start+chunkSize, ts.HighestRowID()+1)
		rowIDs := make([]int64, 0, end-start)
		for r := start; r < end; r++ {
			rowIDs = append(rowIDs, r)
		}

		cells := make([][]string, len(columns))
		for i, c := range columns {
			if cells[i], err = formatColumn(ctx, c, rowIDs); err != nil {
				return fmt.Errorf("column %q: %w", c.Name(), err)
			}
		}

		for r, rowID := range rowIDs {
			row := make([]string, 0, len(header))
			row = append(row, strconv.FormatInt(rowID, 10))
			for i := range columns {
				row = append(row, cells[i][r])
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}
	return writer.Error()
}

func formatColumn(ctx context.Context, c column.Shard, rowIDs []int64) ([]string, error) {
	switch s := c.(type) {
	case column.TypedShard[string]:
		return resolveValues(ctx, s, rowIDs, func(v string) string { return v })
	case column.TypedShard[int64]:
		return resolveValues(ctx, s, rowIDs, func(v int64) string { return strconv.FormatInt(v, 10) })
	case column.TypedShard[float64]:
		return resolveValues(ctx, s, rowIDs, func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) })
	default:
		return nil, fmt.Errorf("unsupported column type %s", c.ColumnType())
	}
}

func resolveValues[T dictionary.Value](ctx context.Context, s column.TypedShard[T], rowIDs []int64, format func(T) string) ([]string, error) {
	ids, err := s.ResolveColumnValueIDsForRowsFlat(ctx, rowIDs)
	if err != nil {
		return nil, err
	}
	values, err := s.Dictionary().DecompressValues(ids)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = format(v)
	}
	return out, nil
}
