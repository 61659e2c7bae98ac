package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"taxicli/internal/audit"
	"taxicli/internal/config"
	"taxicli/internal/exporter"
	"taxicli/internal/infrastructure"
	"taxicli/internal/pipeline"
	"taxicli/internal/zones"
)

func main() {
	inFile := flag.String("in", "", "input trip data CSV (e.g. yellow_tripdata_2019-01.csv)")
	zoneFile := flag.String("zones", "", "taxi zone lookup CSV")
	outFile := flag.String("out", "", "cleaned output CSV (default from config)")
	summaryFile := flag.String("summary", "", "summary log file (default from config)")
	ledgerFile := flag.String("ledger", "", "exclusion ledger CSV (default from config)")
	chunkSize := flag.Int("chunk-size", 0, "rows per chunk (default from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Flags override config.
	if *inFile != "" {
		cfg.Pipeline.InputFile = *inFile
	}
	if *zoneFile != "" {
		cfg.Pipeline.ZoneLookupFile = *zoneFile
	}
	if *outFile != "" {
		cfg.Pipeline.OutputFile = *outFile
	}
	if *summaryFile != "" {
		cfg.Pipeline.SummaryFile = *summaryFile
	}
	if *ledgerFile != "" {
		cfg.Pipeline.LedgerFile = *ledgerFile
	}
	if *chunkSize > 0 {
		cfg.Pipeline.ChunkSize = *chunkSize
	}

	if cfg.Pipeline.InputFile == "" || cfg.Pipeline.ZoneLookupFile == "" {
		slog.Error("Input and zone lookup files are required (-in, -zones)")
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting trip data cleaning",
		slog.String("input", cfg.Pipeline.InputFile),
		slog.String("zone_lookup", cfg.Pipeline.ZoneLookupFile),
		slog.String("output", cfg.Pipeline.OutputFile),
		slog.Int("chunk_size", cfg.Pipeline.ChunkSize))

	if err := run(logger, cfg); err != nil {
		logger.Error("Cleaning run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg *config.Config) error {
	// Start fresh: stale outputs from a previous run would otherwise
	// be appended to.
	for _, path := range []string{cfg.Pipeline.OutputFile, cfg.Pipeline.LedgerFile} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	validZones, err := zones.Load(cfg.Pipeline.ZoneLookupFile)
	if err != nil {
		return err
	}

	reader := pipeline.NewChunkReader(cfg.Pipeline.InputFile, cfg.Pipeline.ChunkSize)
	if err := reader.Open(); err != nil {
		return err
	}
	defer reader.Close()

	sink := exporter.NewSinkWriter(cfg.Pipeline.OutputFile)
	runner := pipeline.NewRunner(logger, reader, sink, validZones)

	counters, err := runner.Run(context.Background())
	if err != nil {
		return err
	}

	reporter := audit.NewReporter(logger)
	if err := reporter.WriteSummary(cfg.Pipeline.SummaryFile, cfg.Pipeline.InputFile, cfg.Pipeline.OutputFile, counters); err != nil {
		return err
	}
	return reporter.WriteLedger(cfg.Pipeline.LedgerFile, counters)
}
