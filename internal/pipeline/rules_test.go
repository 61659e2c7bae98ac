package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxicli/internal/zones"
)

// testSchema mirrors a minimal yellow-cab header.
func testSchema() *Schema {
	return &Schema{
		Columns: []string{
			ColPickupTime, ColDropoffTime, ColPassengers,
			ColTripDistance, ColFareAmount, ColPickupZone, ColDropoffZone,
		},
		PickupTime:   0,
		DropoffTime:  1,
		Passengers:   2,
		TripDistance: 3,
		FareAmount:   4,
		PickupZone:   5,
		DropoffZone:  6,
	}
}

func testZones() zones.Set {
	return zones.Set{1: {}, 2: {}, 3: {}, 100: {}}
}

// tripRow builds a raw row in testSchema column order.
func tripRow(pickup, dropoff, passengers, distance, fare, pu, do string) Row {
	return Row{Fields: []string{pickup, dropoff, passengers, distance, fare, pu, do}}
}

// validRow is a trip that passes every rule: 2 miles in 10 minutes at
// 12 mph, one passenger, $10 fare, both zones valid.
func validRow() Row {
	return tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "1", "2")
}

func applyAll(t *testing.T, rows []Row) (*Chunk, *Counters) {
	t.Helper()
	chunk := &Chunk{Schema: testSchema(), Rows: rows, Number: 1}
	counters := NewCounters()
	counters.TotalIn = int64(len(rows))
	ApplyRules(chunk, &RuleContext{ValidZones: testZones()}, counters)
	counters.TotalOut = int64(chunk.Len())
	return chunk, counters
}

func TestApplyRules_ValidRowSurvives(t *testing.T) {
	chunk, counters := applyAll(t, []Row{validRow()})

	require.Equal(t, 1, chunk.Len())
	assert.True(t, counters.Reconciles())
	assert.InDelta(t, 12.0, chunk.Rows[0].SpeedMPH, 1e-9)
}

func TestApplyRules_RuleAttribution(t *testing.T) {
	tests := []struct {
		name     string
		row      Row
		wantRule string
	}{
		{
			name:     "all fields empty",
			row:      tripRow("", "", "", "", "", "", ""),
			wantRule: RuleEmptyRows,
		},
		{
			name:     "missing dropoff time",
			row:      tripRow("2019-01-15 10:00:00", "", "1", "2.0", "10", "1", "2"),
			wantRule: RuleMissingCritical,
		},
		{
			name:     "missing passenger count is not critical",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "", "2.0", "10", "1", "2"),
			wantRule: RuleInvalidPassenger,
		},
		{
			name:     "unparsable pickup time",
			row:      tripRow("01/15/2019 10:00", "2019-01-15 10:10:00", "1", "2.0", "10", "1", "2"),
			wantRule: RuleInvalidDatetime,
		},
		{
			name:     "dropoff equals pickup",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:00:00", "1", "2.0", "10", "1", "2"),
			wantRule: RuleNegativeDuration,
		},
		{
			name:     "dropoff before pickup",
			row:      tripRow("2019-01-15 11:00:00", "2019-01-15 10:00:00", "1", "2.0", "10", "1", "2"),
			wantRule: RuleNegativeDuration,
		},
		{
			name:     "zero distance",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "0", "10", "1", "2"),
			wantRule: RuleZeroDistance,
		},
		{
			name:     "unparsable distance",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "n/a", "10", "1", "2"),
			wantRule: RuleZeroDistance,
		},
		{
			name:     "distance just over limit",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 12:00:00", "1", "100.0001", "10", "1", "2"),
			wantRule: RuleDistanceTooHigh,
		},
		{
			name:     "zero passengers",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "0", "2.0", "10", "1", "2"),
			wantRule: RuleInvalidPassenger,
		},
		{
			name:     "seven passengers",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "7", "2.0", "10", "1", "2"),
			wantRule: RuleInvalidPassenger,
		},
		{
			name:     "negative fare",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "-0.01", "1", "2"),
			wantRule: RuleNegativeFare,
		},
		{
			name:     "fare just over limit",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "500.01", "1", "2"),
			wantRule: RuleFareTooHigh,
		},
		{
			name:     "duration over six hours",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 16:00:01", "1", "30", "10", "1", "2"),
			wantRule: RuleDurationTooLong,
		},
		{
			name:     "speed just over limit",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 11:00:00", "1", "80.0001", "10", "1", "2"),
			wantRule: RuleSpeedTooHigh,
		},
		{
			name:     "speed below limit",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 11:00:00", "1", "0.49", "10", "1", "2"),
			wantRule: RuleSpeedTooLow,
		},
		{
			name:     "pickup at unknown zone sentinel",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "264", "2"),
			wantRule: RuleUnknownLocation,
		},
		{
			name:     "dropoff at unknown zone sentinel",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "1", "264"),
			wantRule: RuleUnknownLocation,
		},
		{
			name:     "pickup zone not in lookup",
			row:      tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "999", "2"),
			wantRule: RuleInvalidLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, counters := applyAll(t, []Row{tt.row})

			assert.Equal(t, 0, chunk.Len())
			assert.Equal(t, int64(1), counters.Removed(tt.wantRule),
				"row should be claimed by %s", tt.wantRule)
			assert.True(t, counters.Reconciles())

			// No other rule absorbed it.
			for _, name := range RuleNames {
				if name != tt.wantRule {
					assert.Zero(t, counters.Removed(name), "unexpected count for %s", name)
				}
			}
		})
	}
}

func TestApplyRules_BoundaryValuesKept(t *testing.T) {
	tests := []struct {
		name string
		row  Row
	}{
		{
			// 100 miles in 2 hours: 50 mph, within all limits.
			name: "distance exactly 100",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 12:00:00", "1", "100.0", "10", "1", "2"),
		},
		{
			// 80 miles in 1 hour: exactly 80 mph.
			name: "speed exactly 80",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 11:00:00", "1", "80", "10", "1", "2"),
		},
		{
			// 0.5 miles in 1 hour: exactly 0.5 mph.
			name: "speed exactly 0.5",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 11:00:00", "1", "0.5", "10", "1", "2"),
		},
		{
			name: "one passenger",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "1", "2"),
		},
		{
			name: "six passengers",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "6", "2.0", "10", "1", "2"),
		},
		{
			name: "fare exactly 500",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "500", "1", "2"),
		},
		{
			name: "zero fare",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "0", "1", "2"),
		},
		{
			// 30 miles in exactly 6 hours: 5 mph.
			name: "duration exactly six hours",
			row:  tripRow("2019-01-15 10:00:00", "2019-01-15 16:00:00", "1", "30", "10", "1", "2"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, counters := applyAll(t, []Row{tt.row})

			assert.Equal(t, 1, chunk.Len(), "boundary row should survive")
			assert.Zero(t, counters.TotalRemoved())
		})
	}
}

func TestApplyRules_FirstApplicableRuleWins(t *testing.T) {
	// Violates zero_distance, invalid_passengers and negative_fare at
	// once; zero_distance runs first and must claim it.
	row := tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "9", "-1", "-5", "999", "888")

	for i := 0; i < 3; i++ {
		chunk, counters := applyAll(t, []Row{row})

		assert.Equal(t, 0, chunk.Len())
		assert.Equal(t, int64(1), counters.Removed(RuleZeroDistance))
		assert.Zero(t, counters.Removed(RuleInvalidPassenger))
		assert.Zero(t, counters.Removed(RuleNegativeFare))
		assert.Zero(t, counters.Removed(RuleInvalidLocation))
	}
}

func TestApplyRules_DuplicatesWithinBatch(t *testing.T) {
	first := validRow()
	second := validRow() // same pickup time, zones and distance
	different := tripRow("2019-01-15 10:05:00", "2019-01-15 10:15:00", "1", "2.0", "10", "1", "2")

	chunk, counters := applyAll(t, []Row{first, second, different})

	assert.Equal(t, 2, chunk.Len())
	assert.Equal(t, int64(1), counters.Removed(RuleDuplicates))
	assert.True(t, counters.Reconciles())
}

func TestApplyRules_InvalidLocationCountsEachSide(t *testing.T) {
	// Both zones missing from the lookup: one row removed, two
	// violations recorded.
	row := tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "998", "999")

	chunk, counters := applyAll(t, []Row{row})

	assert.Equal(t, 0, chunk.Len())
	assert.Equal(t, int64(1), counters.Removed(RuleInvalidLocation))
	assert.Equal(t, int64(2), counters.Violations(RuleInvalidLocation))
	assert.True(t, counters.Reconciles())
}

func TestApplyRules_EmptyBatchShortCircuits(t *testing.T) {
	chunk, counters := applyAll(t, nil)

	assert.Equal(t, 0, chunk.Len())
	assert.Zero(t, counters.TotalRemoved())
	for _, name := range RuleNames {
		assert.Zero(t, counters.Violations(name))
	}
}

func TestApplyRules_CountConservation(t *testing.T) {
	rows := []Row{
		validRow(),
		tripRow("", "", "", "", "", "", ""),
		tripRow("2019-01-15 11:00:00", "2019-01-15 10:00:00", "1", "2.0", "10", "1", "2"),
		tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "264", "2"),
		tripRow("2019-01-15 10:00:00", "2019-01-15 10:10:00", "1", "2.0", "10", "998", "999"),
		tripRow("2019-01-15 10:20:00", "2019-01-15 10:30:00", "0", "2.0", "10", "1", "2"),
		validRow(), // duplicate of the first
	}

	chunk, counters := applyAll(t, rows)

	assert.Equal(t, 1, chunk.Len())
	require.True(t, counters.Reconciles(),
		"total_in=%d total_out=%d removed=%d", counters.TotalIn, counters.TotalOut, counters.TotalRemoved())
	// The both-sides-invalid row keeps violations above removals.
	assert.Equal(t, int64(1), counters.Removed(RuleInvalidLocation))
	assert.Equal(t, int64(2), counters.Violations(RuleInvalidLocation))
}

func TestZeroDurationEpsilonGuard(t *testing.T) {
	// Durations are strictly positive after the negative_duration
	// rule, so exercise the guard directly.
	rows := []Row{validRow()}
	chunk := &Chunk{Schema: testSchema(), Rows: rows}
	counters := NewCounters()
	ctx := &RuleContext{ValidZones: testZones()}

	// Run the chain up to the speed rule, then zero the duration.
	for _, rule := range Rules() {
		if rule.Name == RuleSpeedTooHigh {
			chunk.Rows[0].DurationHours = 0
			chunk.Rows[0].Distance = 2.0
		}
		var removed, violations int
		chunk.Rows, removed, violations = rule.Apply(chunk.Rows, chunk.Schema, ctx)
		counters.Record(rule.Name, removed, violations)
		if rule.Name == RuleSpeedTooHigh {
			break
		}
	}

	// 2.0 / 0.0001 = 20000 mph: rejected as too fast, not a crash.
	assert.Equal(t, 0, len(chunk.Rows))
	assert.Equal(t, int64(1), counters.Removed(RuleSpeedTooHigh))
}
