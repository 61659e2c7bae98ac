package pipeline

import (
	"time"
)

// Source column names for yellow-cab trip records.
const (
	ColPickupTime   = "tpep_pickup_datetime"
	ColDropoffTime  = "tpep_dropoff_datetime"
	ColTripDistance = "trip_distance"
	ColFareAmount   = "fare_amount"
	ColPassengers   = "passenger_count"
	ColPickupZone   = "PULocationID"
	ColDropoffZone  = "DOLocationID"
)

// TimeLayout is the timestamp format used by the trip record datasets.
const TimeLayout = "2006-01-02 15:04:05"

// Schema holds the source header and the resolved positions of the
// columns the cleaning rules interpret. All other columns are carried
// through to the output untouched.
type Schema struct {
	Columns []string

	PickupTime   int
	DropoffTime  int
	TripDistance int
	FareAmount   int
	Passengers   int
	PickupZone   int
	DropoffZone  int
}

// Row is one trip record: the raw fields aligned to the schema columns,
// plus typed views populated as the rules interpret them. A field the
// rules have not yet reached is only trustworthy as its raw string.
type Row struct {
	Fields []string

	// Populated by the datetime validation rule.
	Pickup  time.Time
	Dropoff time.Time

	// Populated by the distance, fare, duration and speed rules.
	Distance      float64
	Fare          float64
	DurationHours float64
	SpeedMPH      float64

	// Populated by the feature deriver after validation.
	DurationMin     int
	HourOfDay       int
	DayOfWeek       int
	IsPeakHour      int
	CongestionLevel string
}

// Chunk is a bounded batch of rows sharing one schema — the unit of
// memory-bounded processing. A chunk never outlives its loop iteration.
type Chunk struct {
	Schema *Schema
	Rows   []Row
	Number int
}

// Len returns the number of rows currently in the chunk.
func (c *Chunk) Len() int {
	return len(c.Rows)
}
