// Package xlsx repartitions a flat CSV file into an Excel workbook of
// fixed-size sheets. It is pure mechanical pagination: values are
// carried as text and nothing is validated.
package xlsx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"taxicli/internal/config"
	"taxicli/internal/errors"
)

// Converter streams a CSV into sheets of at most SheetRowLimit data
// rows each. Rotation happens at chunk granularity: a chunk that would
// overflow the current sheet starts the next one, so a chunk is never
// split across sheets. Every sheet begins with the header row.
type Converter struct {
	logger        *slog.Logger
	sheetRowLimit int
	chunkSize     int
}

// NewConverter creates a converter. A nil logger falls back to the default.
func NewConverter(logger *slog.Logger, cfg config.ConverterConfig) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		logger:        logger,
		sheetRowLimit: cfg.SheetRowLimit,
		chunkSize:     cfg.ChunkSize,
	}
}

// Convert reads csvPath chunk by chunk and writes xlsxPath. Memory
// stays bounded: one chunk of records plus excelize's stream buffer.
func (c *Converter) Convert(ctx context.Context, csvPath, xlsxPath string) error {
	src, err := os.Open(csvPath)
	if err != nil {
		return errors.NewSourceUnavailable(csvPath, err)
	}
	defer src.Close()

	reader := csv.NewReader(src)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return errors.NewMalformedInput("failed to read header row", err)
	}

	book := excelize.NewFile()
	defer book.Close()

	sheetNum := 1
	if err := book.SetSheetName("Sheet1", sheetName(sheetNum)); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sheet, err := newSheetWriter(book, sheetName(sheetNum), header)
	if err != nil {
		return err
	}

	chunkNum := 0
	totalRows := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := readChunk(reader, c.chunkSize, chunkNum+1)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			break
		}
		chunkNum++

		if sheet.rows+len(chunk) > c.sheetRowLimit {
			if err := sheet.flush(); err != nil {
				return err
			}
			sheetNum++
			c.logger.Info("Sheet full, rotating",
				slog.String("next_sheet", sheetName(sheetNum)))
			if _, err := book.NewSheet(sheetName(sheetNum)); err != nil {
				return fmt.Errorf("failed to create sheet: %w", err)
			}
			sheet, err = newSheetWriter(book, sheetName(sheetNum), header)
			if err != nil {
				return err
			}
		}

		if err := sheet.writeRows(chunk); err != nil {
			return err
		}
		totalRows += len(chunk)

		if chunkNum%5 == 1 {
			c.logger.Info("Conversion progress",
				slog.Int("chunks", chunkNum),
				slog.Int("rows", totalRows),
				slog.Int("sheets", sheetNum))
		}
	}

	if err := sheet.flush(); err != nil {
		return err
	}
	if err := book.SaveAs(xlsxPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	c.logger.Info("Conversion complete",
		slog.String("output", xlsxPath),
		slog.Int("rows", totalRows),
		slog.Int("sheets", sheetNum))
	return nil
}

// readChunk reads up to size records; a short or empty result means EOF.
func readChunk(reader *csv.Reader, size, number int) ([][]string, error) {
	chunk := make([][]string, 0, size)
	for len(chunk) < size {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewMalformedInput(
				fmt.Sprintf("failed to parse record in chunk %d", number), err)
		}
		chunk = append(chunk, record)
	}
	return chunk, nil
}

func sheetName(n int) string {
	return fmt.Sprintf("Data_Part_%d", n)
}

// sheetWriter wraps one sheet's stream writer and its data row count.
type sheetWriter struct {
	stream *excelize.StreamWriter
	rows   int
}

// newSheetWriter opens a stream writer on the sheet and writes the
// header as its first row.
func newSheetWriter(book *excelize.File, name string, header []string) (*sheetWriter, error) {
	stream, err := book.NewStreamWriter(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer for %s: %w", name, err)
	}
	w := &sheetWriter{stream: stream}
	if err := w.setRow(1, header); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *sheetWriter) writeRows(records [][]string) error {
	for _, record := range records {
		// Row 1 is the header, data starts at row 2.
		if err := w.setRow(w.rows+2, record); err != nil {
			return err
		}
		w.rows++
	}
	return nil
}

func (w *sheetWriter) setRow(row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell for row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := w.stream.SetRow(cell, cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func (w *sheetWriter) flush() error {
	if err := w.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return nil
}
