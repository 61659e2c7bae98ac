// Package pipeline implements the streaming trip-data cleaning pipeline.
//
// This package contains four main components:
//
// ChunkReader: Chunked CSV ingestion that holds at most one bounded
// batch of rows in memory, regardless of total dataset size.
//
// Rules: The ordered validation chain. Each rule removes the rows
// violating one criterion and records how many it removed; later rules
// only ever see the survivors of earlier ones, so every rejected row
// is attributed to exactly one counter.
//
// Feature derivation: Per-row derived fields (trip duration, hour of
// day, day of week, peak-hour flag, congestion level) computed for
// validated rows only.
//
// Runner: The sequential orchestration loop tying reader, rules,
// features and the output writer together, accumulating the run-wide
// Counters that the audit package reports from.
//
// Example usage:
//
//	reader := pipeline.NewChunkReader("yellow_tripdata_2019-01.csv", 100000)
//	if err := reader.Open(); err != nil {
//		return err
//	}
//	defer reader.Close()
//
//	runner := pipeline.NewRunner(logger, reader, sink, validZones)
//	counters, err := runner.Run(ctx)
package pipeline
