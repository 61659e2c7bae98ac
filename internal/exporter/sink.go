package exporter

import (
	"fmt"

	"taxicli/internal/pipeline"
)

// SinkWriter appends cleaned, feature-enriched chunks to the output
// dataset. The header row is written exactly once, ahead of the first
// surviving row of the run; every later write is a header-less append.
// Writes are not transactional: a run aborted mid-chunk leaves the
// fully-written prior chunks in place.
type SinkWriter struct {
	path        string
	csv         *CSVWriter
	wroteHeader bool
}

// NewSinkWriter creates a sink writing to path.
func NewSinkWriter(path string) *SinkWriter {
	return &SinkWriter{path: path, csv: NewCSVWriter()}
}

// WriteChunk appends the chunk's rows to the output. An empty chunk is
// a no-op and does not trigger the header write.
func (w *SinkWriter) WriteChunk(chunk *pipeline.Chunk) error {
	if chunk.Len() == 0 {
		return nil
	}

	records := make([][]string, 0, chunk.Len())
	for i := range chunk.Rows {
		records = append(records, enrichedRecord(&chunk.Rows[i]))
	}

	options := WriteOptions{Records: records, Append: true}
	if !w.wroteHeader {
		header := make([]string, 0, len(chunk.Schema.Columns)+len(pipeline.DerivedColumns))
		header = append(header, chunk.Schema.Columns...)
		header = append(header, pipeline.DerivedColumns...)
		options.Headers = header
		options.Append = false
	}

	if err := w.csv.WriteCSV(w.path, options); err != nil {
		return fmt.Errorf("failed to write chunk %d: %w", chunk.Number, err)
	}
	w.wroteHeader = true
	return nil
}

// enrichedRecord renders a row as its source fields verbatim followed
// by the derived feature columns.
func enrichedRecord(r *pipeline.Row) []string {
	record := make([]string, 0, len(r.Fields)+len(pipeline.DerivedColumns))
	record = append(record, r.Fields...)
	record = append(record,
		formatFloat(r.SpeedMPH),
		formatInt(r.DurationMin),
		formatInt(r.HourOfDay),
		formatInt(r.DayOfWeek),
		formatInt(r.IsPeakHour),
		r.CongestionLevel,
	)
	return record
}
