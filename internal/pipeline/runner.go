package pipeline

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"taxicli/internal/zones"
)

// ChunkWriter receives each chunk's surviving, enriched rows.
type ChunkWriter interface {
	WriteChunk(*Chunk) error
}

// Runner drives the cleaning pipeline: it pulls chunks from the
// reader, folds the rule chain over each, derives features for the
// survivors and hands them to the writer, accumulating the run
// counters along the way. Processing is strictly sequential — one
// chunk in memory at a time, no overlap between read, clean and write.
type Runner struct {
	logger *slog.Logger
	reader *ChunkReader
	writer ChunkWriter
	rules  *RuleContext
}

// NewRunner creates a runner over an opened reader.
func NewRunner(logger *slog.Logger, reader *ChunkReader, writer ChunkWriter, validZones zones.Set) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger: logger,
		reader: reader,
		writer: writer,
		rules:  &RuleContext{ValidZones: validZones},
	}
}

// Run processes the source to exhaustion and returns the final
// counters. Row-level issues never abort the run; a malformed chunk or
// a write failure does. Cancellation is honored between chunks.
func (r *Runner) Run(ctx context.Context) (*Counters, error) {
	runID := uuid.New().String()
	logger := r.logger.With(slog.String("run_id", runID))

	logger.Info("Starting cleaning run",
		slog.Int("chunk_size", r.reader.chunkSize),
		slog.String("source", r.reader.path))

	counters := NewCounters()

	for {
		select {
		case <-ctx.Done():
			return counters, ctx.Err()
		default:
		}

		chunk, err := r.reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return counters, err
		}

		counters.TotalIn += int64(chunk.Len())

		ApplyRules(chunk, r.rules, counters)
		DeriveFeatures(chunk)

		if chunk.Len() > 0 {
			if err := r.writer.WriteChunk(chunk); err != nil {
				return counters, err
			}
			counters.TotalOut += int64(chunk.Len())
		}

		logger.Info("Chunk processed",
			slog.Int("chunk", chunk.Number),
			slog.Int64("rows_scanned", counters.TotalIn),
			slog.Int64("rows_kept", counters.TotalOut),
			slog.Float64("percent_kept", percentKept(counters)))
	}

	logger.Info("Cleaning run complete",
		slog.Int64("total_in", counters.TotalIn),
		slog.Int64("total_out", counters.TotalOut),
		slog.Int64("total_excluded", counters.TotalRemoved()))

	return counters, nil
}

func percentKept(c *Counters) float64 {
	if c.TotalIn == 0 {
		return 0
	}
	return float64(c.TotalOut) / float64(c.TotalIn) * 100
}
