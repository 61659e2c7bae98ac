package pipeline

// Derived output column names, in the order they are appended to the
// source columns.
const (
	ColAvgSpeed        = "avg_speed_mph"
	ColDurationMin     = "trip_duration_min"
	ColHourOfDay       = "hour_of_day"
	ColDayOfWeek       = "day_of_week"
	ColIsPeakHour      = "is_peak_hour"
	ColCongestionLevel = "congestion_level"
)

// DerivedColumns lists the feature columns appended to the output.
var DerivedColumns = []string{
	ColAvgSpeed,
	ColDurationMin,
	ColHourOfDay,
	ColDayOfWeek,
	ColIsPeakHour,
	ColCongestionLevel,
}

// Congestion buckets derived from average speed.
const (
	CongestionHigh   = "High"   // < 10 mph, severe gridlock
	CongestionMedium = "Medium" // 10-25 mph, typical urban traffic
	CongestionLow    = "Low"    // > 25 mph, free flow
)

// peakHours are the morning and evening rush windows (7-9am, 5-7pm).
var peakHours = map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}

// DeriveFeatures computes the per-row derived fields for a fully
// validated chunk. Every row is guaranteed to have parsed timestamps
// and a finite positive speed at this point, so no failures occur.
func DeriveFeatures(chunk *Chunk) {
	for i := range chunk.Rows {
		deriveRow(&chunk.Rows[i])
	}
}

func deriveRow(r *Row) {
	// Truncated toward zero; duration is positive after validation.
	r.DurationMin = int(r.Dropoff.Sub(r.Pickup).Seconds() / 60)

	// Hour in the timestamp's own locale, deliberately unconverted.
	r.HourOfDay = r.Pickup.Hour()

	// 1=Sunday .. 7=Saturday, matching MySQL DAYOFWEEK numbering for
	// the downstream load rather than Go's Sunday=0.
	r.DayOfWeek = int(r.Pickup.Weekday()) + 1

	if peakHours[r.HourOfDay] {
		r.IsPeakHour = 1
	} else {
		r.IsPeakHour = 0
	}

	r.CongestionLevel = congestionLevel(r.SpeedMPH)
}

// congestionLevel buckets an average speed into High/Medium/Low.
func congestionLevel(speedMPH float64) string {
	switch {
	case speedMPH < 10:
		return CongestionHigh
	case speedMPH <= 25:
		return CongestionMedium
	default:
		return CongestionLow
	}
}
