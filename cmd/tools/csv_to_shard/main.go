package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soltixdb/columnstore/internal/column"
	"github.com/soltixdb/columnstore/internal/compression"
	"github.com/soltixdb/columnstore/internal/config"
	"github.com/soltixdb/columnstore/internal/dictionary"
	"github.com/soltixdb/columnstore/internal/logging"
	"github.com/soltixdb/columnstore/internal/metrics"
	"github.com/soltixdb/columnstore/internal/table"
)

func main() {
	input := flag.String("input", "", "CSV file with a header row")
	output := flag.String("output", "", "Output shard file (default: <input>.shard)")
	tableName := flag.String("table", "", "Table name (default: input file name)")
	firstRow := flag.Int64("first-row", 0, "Row id of the first CSV record")
	types := flag.String("types", "", "Column type overrides, e.g. host=string,count=long")
	configPath := flag.String("config", "", "Config file (default: search ./columnstore.yaml)")
	flag.Parse()

	if *input == "" {
		log.Fatal("Error: -input parameter is required")
	}
	if *output == "" {
		*output = strings.TrimSuffix(*input, ".csv") + ".shard"
	}
	if *tableName == "" {
		*tableName = strings.TrimSuffix(filepath.Base(*input), ".csv")
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
	metrics.Init(cfg.Metrics, prometheus.NewRegistry())

	algo, err := compression.ParseAlgorithm(cfg.Store.PayloadCompression)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	overrides, err := parseTypes(*types)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	start := time.Now()
	header, records, err := readCSV(*input)
	if err != nil {
		log.Fatalf("Error reading CSV: %v\n", err)
	}
	if len(records) == 0 {
		log.Printf("Warning: No records found\n")
		return
	}

	columns := make([]column.Shard, 0, len(header))
	for i, name := range header {
		values := make([]string, len(records))
		for r, rec := range records {
			values[r] = rec[i]
		}
		ct, ok := overrides[name]
		if !ok {
			ct = inferType(values)
		}
		shard, err := buildColumn(name, ct, *firstRow, values, cfg.Store.RowsPerPage)
		if err != nil {
			log.Fatalf("Error building column %q: %v\n", name, err)
		}
		logger.Info("Built column",
			"column", name,
			"type", ct.String(),
			"pages", len(shard.Pages()),
			"size_bytes", shard.ApproximateSizeInBytes())
		columns = append(columns, shard)
	}

	ts, err := table.NewTableShard(*tableName, columns...)
	if err != nil {
		log.Fatalf("Error assembling table shard: %v\n", err)
	}
	data, err := table.MarshalShard(ts, algo)
	if err != nil {
		log.Fatalf("Error serializing table shard: %v\n", err)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("Error writing %s: %v\n", *output, err)
	}

	fmt.Printf("Wrote %d rows x %d columns to %s (%d bytes, %s, %s)\n",
		len(records), len(columns), *output, len(data), algo, time.Since(start).Round(time.Millisecond))
}

// parseTypes reads name=type pairs
func parseTypes(list string) (map[string]dictionary.ColumnType, error) {
	out := make(map[string]dictionary.ColumnType)
	if list == "" {
		return out, nil
	}
	for _, pair := range strings.Split(list, ",") {
		name, typ, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid type override %q, expected name=type", pair)
		}
		switch strings.ToLower(typ) {
		case "string":
			out[name] = dictionary.ColumnTypeString
		case "long":
			out[name] = dictionary.ColumnTypeLong
		case "double":
			out[name] = dictionary.ColumnTypeDouble
		default:
			return nil, fmt.Errorf("unknown column type %q for %q", typ, name)
		}
	}
	return out, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// inferType picks LONG if every value is an integer, DOUBLE if every value
// is a finite number, STRING otherwise
func inferType(values []string) dictionary.ColumnType {
	long := true
	for _, v := range values {
		if long {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			long = false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return dictionary.ColumnTypeString
		}
	}
	if long {
		return dictionary.ColumnTypeLong
	}
	return dictionary.ColumnTypeDouble
}

func buildColumn(name string, ct dictionary.ColumnType, firstRow int64, values []string, rowsPerPage int) (column.Shard, error) {
	switch ct {
	case dictionary.ColumnTypeLong:
		parsed := make([]int64, len(values))
		for i, v := range values {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			parsed[i] = n
		}
		return column.BuildShard(name, firstRow, parsed, rowsPerPage)
	case dictionary.ColumnTypeDouble:
		parsed := make([]float64, len(values))
		for i, v := range values {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			parsed[i] = f
		}
		return column.BuildShard(name, firstRow, parsed, rowsPerPage)
	default:
		return column.BuildShard(name, firstRow, values, rowsPerPage)
	}
}
