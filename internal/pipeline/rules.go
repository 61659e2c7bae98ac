package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"taxicli/internal/zones"
)

// Rule names, used as counter keys, report labels and ledger issue
// types. The order of RuleNames is the order the rules run in.
const (
	RuleEmptyRows        = "empty_rows"
	RuleMissingCritical  = "missing_critical_fields"
	RuleInvalidDatetime  = "invalid_datetime"
	RuleNegativeDuration = "negative_duration"
	RuleDuplicates       = "duplicates"
	RuleZeroDistance     = "zero_distance"
	RuleDistanceTooHigh  = "distance_too_high"
	RuleInvalidPassenger = "invalid_passengers"
	RuleNegativeFare     = "negative_fare"
	RuleFareTooHigh      = "fare_too_high"
	RuleDurationTooLong  = "duration_too_long"
	RuleSpeedTooHigh     = "speed_too_high"
	RuleSpeedTooLow      = "speed_too_low"
	RuleUnknownLocation  = "unknown_location"
	RuleInvalidLocation  = "invalid_location"
)

// RuleNames lists every rule in execution order.
var RuleNames = []string{
	RuleEmptyRows,
	RuleMissingCritical,
	RuleInvalidDatetime,
	RuleNegativeDuration,
	RuleDuplicates,
	RuleZeroDistance,
	RuleDistanceTooHigh,
	RuleInvalidPassenger,
	RuleNegativeFare,
	RuleFareTooHigh,
	RuleDurationTooLong,
	RuleSpeedTooHigh,
	RuleSpeedTooLow,
	RuleUnknownLocation,
	RuleInvalidLocation,
}

// Validation thresholds.
const (
	maxDistanceMiles = 100.0
	minPassengers    = 1
	maxPassengers    = 6
	maxFare          = 500.0
	maxDurationHours = 6.0
	maxSpeedMPH      = 80.0
	minSpeedMPH      = 0.5

	// zeroDurationEpsilon substitutes for a zero-hour duration when
	// computing average speed. This is a divide-by-zero guard, not a
	// data fix: a sub-second trip gets an inflated speed and is then
	// caught by the speed bounds.
	zeroDurationEpsilon = 0.0001
)

// RuleContext is the shared read-only state the rules consult.
type RuleContext struct {
	ValidZones zones.Set
}

// RuleFunc filters a batch. It returns the surviving rows, the number
// of rows removed, and the number of violations observed. The two
// differ only for rules that count each failing field independently.
type RuleFunc func(rows []Row, s *Schema, ctx *RuleContext) (survivors []Row, removed, violations int)

// Rule is one named validation step with its own rejection counter.
type Rule struct {
	Name  string
	Apply RuleFunc
}

// Rules returns the rule chain in its canonical execution order. The
// order decides which counter claims a row violating several rules at
// once: the first applicable rule wins, and later rules never see the
// rows it removed.
func Rules() []Rule {
	return []Rule{
		{RuleEmptyRows, dropEmptyRows},
		{RuleMissingCritical, dropMissingCriticalFields},
		{RuleInvalidDatetime, dropInvalidDatetimes},
		{RuleNegativeDuration, dropNegativeDurations},
		{RuleDuplicates, dropDuplicates},
		{RuleZeroDistance, dropZeroDistance},
		{RuleDistanceTooHigh, dropDistanceTooHigh},
		{RuleInvalidPassenger, dropInvalidPassengers},
		{RuleNegativeFare, dropNegativeFares},
		{RuleFareTooHigh, dropFaresTooHigh},
		{RuleDurationTooLong, dropDurationsTooLong},
		{RuleSpeedTooHigh, dropSpeedTooHigh},
		{RuleSpeedTooLow, dropSpeedTooLow},
		{RuleUnknownLocation, dropUnknownLocations},
		{RuleInvalidLocation, dropInvalidLocations},
	}
}

// ApplyRules folds the rule chain over a chunk, accumulating each
// rule's rejections into the run counters. An empty batch
// short-circuits so no rule can double-count.
func ApplyRules(chunk *Chunk, ctx *RuleContext, counters *Counters) {
	rows := chunk.Rows
	for _, rule := range Rules() {
		if len(rows) == 0 {
			break
		}
		var removed, violations int
		rows, removed, violations = rule.Apply(rows, chunk.Schema, ctx)
		counters.Record(rule.Name, removed, violations)
	}
	chunk.Rows = rows
}

// filterRows keeps the rows for which keep returns true, reusing the
// backing array. keep may populate the row's typed fields.
func filterRows(rows []Row, keep func(*Row) bool) ([]Row, int) {
	out := rows[:0]
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out, len(rows) - len(out)
}

func dropEmptyRows(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		for _, field := range r.Fields {
			if strings.TrimSpace(field) != "" {
				return true
			}
		}
		return false
	})
	return out, removed, removed
}

func dropMissingCriticalFields(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	critical := []int{
		s.PickupTime, s.DropoffTime, s.TripDistance,
		s.FareAmount, s.PickupZone, s.DropoffZone,
	}
	out, removed := filterRows(rows, func(r *Row) bool {
		for _, i := range critical {
			if strings.TrimSpace(r.Fields[i]) == "" {
				return false
			}
		}
		return true
	})
	return out, removed, removed
}

func dropInvalidDatetimes(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		pickup, err := time.Parse(TimeLayout, strings.TrimSpace(r.Fields[s.PickupTime]))
		if err != nil {
			return false
		}
		dropoff, err := time.Parse(TimeLayout, strings.TrimSpace(r.Fields[s.DropoffTime]))
		if err != nil {
			return false
		}
		r.Pickup = pickup
		r.Dropoff = dropoff
		return true
	})
	return out, removed, removed
}

func dropNegativeDurations(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		return r.Dropoff.After(r.Pickup)
	})
	return out, removed, removed
}

// dropDuplicates removes rows repeating an earlier row's (pickup time,
// pickup zone, dropoff zone, distance) tuple. Detection is scoped to
// the current batch: a duplicate pair split across two chunks survives
// undetected, since a run-wide key set would grow without bound and
// break the bounded-memory guarantee.
func dropDuplicates(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	seen := make(map[string]struct{}, len(rows))
	out, removed := filterRows(rows, func(r *Row) bool {
		key := fmt.Sprintf("%d|%s|%s|%s",
			r.Pickup.Unix(),
			strings.TrimSpace(r.Fields[s.PickupZone]),
			strings.TrimSpace(r.Fields[s.DropoffZone]),
			strings.TrimSpace(r.Fields[s.TripDistance]))
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	return out, removed, removed
}

func dropZeroDistance(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		distance, ok := parseFloat(r.Fields[s.TripDistance])
		if !ok || distance <= 0 {
			return false
		}
		r.Distance = distance
		return true
	})
	return out, removed, removed
}

func dropDistanceTooHigh(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		return r.Distance <= maxDistanceMiles
	})
	return out, removed, removed
}

func dropInvalidPassengers(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		count, ok := parseFloat(r.Fields[s.Passengers])
		return ok && count >= minPassengers && count <= maxPassengers
	})
	return out, removed, removed
}

func dropNegativeFares(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		fare, ok := parseFloat(r.Fields[s.FareAmount])
		if !ok || fare < 0 {
			return false
		}
		r.Fare = fare
		return true
	})
	return out, removed, removed
}

func dropFaresTooHigh(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		return r.Fare <= maxFare
	})
	return out, removed, removed
}

func dropDurationsTooLong(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		r.DurationHours = r.Dropoff.Sub(r.Pickup).Hours()
		return r.DurationHours <= maxDurationHours
	})
	return out, removed, removed
}

func dropSpeedTooHigh(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		hours := r.DurationHours
		if hours == 0 {
			hours = zeroDurationEpsilon
		}
		r.SpeedMPH = r.Distance / hours
		return r.SpeedMPH <= maxSpeedMPH
	})
	return out, removed, removed
}

func dropSpeedTooLow(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		return r.SpeedMPH >= minSpeedMPH
	})
	return out, removed, removed
}

func dropUnknownLocations(rows []Row, s *Schema, _ *RuleContext) ([]Row, int, int) {
	out, removed := filterRows(rows, func(r *Row) bool {
		return !isUnknownZone(r.Fields[s.PickupZone]) && !isUnknownZone(r.Fields[s.DropoffZone])
	})
	return out, removed, removed
}

// dropInvalidLocations checks each side against the valid-zone set
// independently, so a row with both zones invalid records two
// violations but is removed once. The counter measures violations,
// not rows.
func dropInvalidLocations(rows []Row, s *Schema, ctx *RuleContext) ([]Row, int, int) {
	violations := 0
	out, removed := filterRows(rows, func(r *Row) bool {
		ok := true
		if !isValidZone(r.Fields[s.PickupZone], ctx.ValidZones) {
			violations++
			ok = false
		}
		if !isValidZone(r.Fields[s.DropoffZone], ctx.ValidZones) {
			violations++
			ok = false
		}
		return ok
	})
	return out, removed, violations
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func isUnknownZone(s string) bool {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && id == zones.UnknownZoneID
}

func isValidZone(s string, valid zones.Set) bool {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && valid.Contains(id)
}
