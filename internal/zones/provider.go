// Package zones loads the taxi zone lookup dataset and exposes the set
// of location identifiers considered valid for trip validation.
package zones

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"taxicli/internal/errors"
)

// UnknownZoneID is the sentinel identifier the data source uses for
// trips with an unknown pickup or dropoff zone. It is never part of
// the valid set.
const UnknownZoneID = 264

// locationIDColumn is the identifier column in the zone lookup file.
const locationIDColumn = "LocationID"

// Set is an immutable membership set of valid zone identifiers,
// computed once per run.
type Set map[int]struct{}

// Contains reports whether id is a valid zone.
func (s Set) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of valid zones.
func (s Set) Len() int {
	return len(s)
}

// Load reads the zone lookup CSV exactly once and returns the set of
// all zone ids minus the unknown-zone sentinel. Any failure is a
// REFERENCE error: the run cannot validate locations without the set,
// so the caller must treat it as fatal.
func Load(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewReferenceLoadError("failed to open zone lookup", err).
			WithContext("path", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewReferenceLoadError("failed to parse zone lookup", err)
	}
	if len(records) == 0 {
		return nil, errors.NewReferenceLoadError("zone lookup is empty", nil)
	}

	idCol := -1
	for i, name := range records[0] {
		if name == locationIDColumn {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, errors.NewReferenceLoadError(
			fmt.Sprintf("zone lookup is missing column %q", locationIDColumn), nil)
	}

	set := make(Set, len(records)-1)
	for _, record := range records[1:] {
		if idCol >= len(record) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(record[idCol]))
		if err != nil {
			return nil, errors.NewReferenceLoadError(
				fmt.Sprintf("invalid zone id %q", record[idCol]), err)
		}
		set[id] = struct{}{}
	}
	delete(set, UnknownZoneID)

	slog.Info("Loaded taxi zone lookup",
		slog.String("path", path),
		slog.Int("valid_zones", set.Len()))

	return set, nil
}
