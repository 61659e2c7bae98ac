package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"taxicli/internal/config"
	"taxicli/internal/infrastructure"
	"taxicli/internal/xlsx"
)

func main() {
	inFile := flag.String("in", "", "input CSV file")
	outFile := flag.String("out", "", "output .xlsx file (default: input name with .xlsx)")
	sheetLimit := flag.Int("sheet-limit", 0, "max data rows per sheet (default from config)")
	chunkSize := flag.Int("chunk-size", 0, "rows per chunk (default from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if *sheetLimit > 0 {
		cfg.Converter.SheetRowLimit = *sheetLimit
	}
	if *chunkSize > 0 {
		cfg.Converter.ChunkSize = *chunkSize
	}

	if *inFile == "" {
		slog.Error("Input file is required (-in)")
		os.Exit(1)
	}
	if *outFile == "" {
		*outFile = strings.TrimSuffix(*inFile, ".csv") + ".xlsx"
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting CSV to Excel conversion",
		slog.String("input", *inFile),
		slog.String("output", *outFile),
		slog.Int("sheet_limit", cfg.Converter.SheetRowLimit),
		slog.Int("chunk_size", cfg.Converter.ChunkSize))

	converter := xlsx.NewConverter(logger, cfg.Converter)
	if err := converter.Convert(context.Background(), *inFile, *outFile); err != nil {
		logger.Error("Conversion failed", "error", err)
		os.Exit(1)
	}
}
