package aggregator

import (
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/readingdb"
	"github.com/rs/zerolog/log"
)

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// getHourEnd returns the Unix timestamp of the last second of the hour
func getHourEnd(hourStart int64) int64 {
	return hourStart + int64(time.Hour/time.Second) - 1
}

// AggregateDemandHourly averages the demand readings of one hour into aggregate_demand_hourly.
// Hours without readings are left alone.
func AggregateDemandHourly(hourStart int64) (HourResult, error) {
	result := HourResult{HourStart: hourStart}
	db := readingdb.GetDB()

	var avgWatt sql.NullFloat64
	var maxWatt sql.NullInt64
	err := db.QueryRow(`
		SELECT AVG(watt), MAX(watt), COUNT(*)
		FROM demand_readings
		WHERE timestamp >= ? AND timestamp <= ?
	`, hourStart, getHourEnd(hourStart)).Scan(&avgWatt, &maxWatt, &result.SampleCount)
	if err != nil {
		return result, err
	}
	if result.SampleCount == 0 {
		return result, nil
	}

	err = readingdb.UpsertAggregateDemandHourly(&readingdb.AggregateDemandHourly{
		HourStart:   hourStart,
		AvgWatt:     uint32(math.Round(avgWatt.Float64)),
		MaxWatt:     uint32(maxWatt.Int64),
		SampleCount: result.SampleCount,
	})
	result.Stored = err == nil
	return result, err
}

// CleanupOldData removes raw readings older than RawRetention, but only once
// aggregation has caught up past the cutoff.
func CleanupOldData(now time.Time) (bool, error) {
	db := readingdb.GetDB()
	cutoff := now.UTC().Add(-RawRetention).Unix()

	var lastAggregateHour sql.NullInt64
	err := db.QueryRow("SELECT MAX(hour_start) FROM aggregate_demand_hourly").Scan(&lastAggregateHour)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if !lastAggregateHour.Valid || lastAggregateHour.Int64 < cutoff {
		return false, nil
	}

	for _, table := range []string{"demand_readings", "summation_readings", "price_readings"} {
		if _, err := db.Exec("DELETE FROM "+table+" WHERE timestamp < ?", cutoff); err != nil {
			return false, err
		}
	}

	log.Info().Time("cutoff", time.Unix(cutoff, 0).UTC()).Msg("Cleaned up raw readings")
	return true, nil
}

// AggregateAndCleanup aggregates the previous hour and prunes raw data.
// This is the main function to call for data aggregation
func AggregateAndCleanup(now time.Time) error {
	// The current hour is still ongoing
	hourStart := roundToHourStart(now.Add(-time.Hour))

	result, err := AggregateDemandHourly(hourStart)
	if err != nil {
		log.Error().Err(err).Msg("Error aggregating hourly demand")
		return err
	}
	log.Info().
		Time("hour", time.Unix(hourStart, 0).UTC()).
		Uint32("samples", result.SampleCount).
		Msg("Aggregated hourly demand")

	if _, err := CleanupOldData(now); err != nil {
		log.Error().Err(err).Msg("Error cleaning up old data")
		return err
	}
	return nil
}
