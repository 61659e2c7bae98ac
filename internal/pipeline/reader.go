package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"taxicli/internal/errors"
)

// ChunkReader produces a lazy, finite sequence of bounded-size chunks
// from a trip record CSV, preserving row order. It holds at most one
// chunk of rows in memory at a time.
type ChunkReader struct {
	path      string
	chunkSize int

	file   *os.File
	reader *csv.Reader
	schema *Schema
	number int
}

// NewChunkReader creates a reader over the dataset at path, yielding
// at most chunkSize rows per chunk.
func NewChunkReader(path string, chunkSize int) *ChunkReader {
	return &ChunkReader{path: path, chunkSize: chunkSize}
}

// Open opens the source file and resolves the schema from its header.
// Returns a SOURCE error if the file cannot be opened and a PARSING
// error if the header is missing any required column.
func (r *ChunkReader) Open() error {
	f, err := os.Open(r.path)
	if err != nil {
		return errors.NewSourceUnavailable(r.path, err)
	}

	r.file = f
	r.reader = csv.NewReader(f)
	r.reader.LazyQuotes = true
	r.reader.TrimLeadingSpace = true

	header, err := r.reader.Read()
	if err != nil {
		f.Close()
		return errors.NewMalformedInput("failed to read header row", err)
	}

	schema, err := resolveSchema(header)
	if err != nil {
		f.Close()
		return err
	}
	r.schema = schema
	return nil
}

// Schema returns the resolved source schema. Only valid after Open.
func (r *ChunkReader) Schema() *Schema {
	return r.schema
}

// Next reads and returns the next chunk. Returns io.EOF when the
// source is exhausted, and a PARSING error if a record cannot be read
// into the expected columnar shape — parse failures are fatal for the
// run, there is no skip-and-continue.
func (r *ChunkReader) Next() (*Chunk, error) {
	rows := make([]Row, 0, r.chunkSize)

	for len(rows) < r.chunkSize {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewMalformedInput(
				fmt.Sprintf("failed to parse record in chunk %d", r.number+1), err)
		}
		rows = append(rows, Row{Fields: record})
	}

	if len(rows) == 0 {
		return nil, io.EOF
	}

	r.number++
	return &Chunk{Schema: r.schema, Rows: rows, Number: r.number}, nil
}

// Close releases the underlying file.
func (r *ChunkReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// resolveSchema maps the required columns to their header positions.
func resolveSchema(header []string) (*Schema, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	s := &Schema{Columns: header}
	required := []struct {
		name string
		pos  *int
	}{
		{ColPickupTime, &s.PickupTime},
		{ColDropoffTime, &s.DropoffTime},
		{ColTripDistance, &s.TripDistance},
		{ColFareAmount, &s.FareAmount},
		{ColPassengers, &s.Passengers},
		{ColPickupZone, &s.PickupZone},
		{ColDropoffZone, &s.DropoffZone},
	}
	for _, col := range required {
		pos, ok := index[col.name]
		if !ok {
			return nil, errors.NewMalformedInput(
				fmt.Sprintf("source is missing required column %q", col.name), nil)
		}
		*col.pos = pos
	}
	return s, nil
}
