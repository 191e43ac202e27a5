package aggregator

import "time"

// RawRetention is how long raw readings are kept once aggregated.
const RawRetention = 3 * 30 * 24 * time.Hour

type HourResult struct {
	HourStart   int64
	SampleCount uint32
	Stored      bool
}
