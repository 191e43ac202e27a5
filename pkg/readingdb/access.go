package readingdb

import (
	"database/sql"
	"errors"
)

// Insert functions report whether a row was written. A reading already stored
// with the same timestamp and checksum is skipped.

func InsertDemandReading(reading *DemandReading) (bool, error) {
	return insert(
		"INSERT OR IGNORE INTO demand_readings (timestamp, meter_mac_id, watt, checksum) "+
			"VALUES (?, ?, ?, ?)",
		reading.Timestamp,
		reading.MeterMacId,
		reading.Watt,
		reading.Checksum,
	)
}

func InsertSummationReading(reading *SummationReading) (bool, error) {
	return insert(
		"INSERT OR IGNORE INTO summation_readings "+
			"(timestamp, meter_mac_id, delivered_wh, received_wh, checksum) "+
			"VALUES (?, ?, ?, ?, ?)",
		reading.Timestamp,
		reading.MeterMacId,
		reading.DeliveredWh,
		reading.ReceivedWh,
		reading.Checksum,
	)
}

func InsertPriceReading(reading *PriceReading) (bool, error) {
	return insert(
		"INSERT OR IGNORE INTO price_readings "+
			"(timestamp, meter_mac_id, price, trailing_digits, currency, tier, checksum) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?)",
		reading.Timestamp,
		reading.MeterMacId,
		reading.Price,
		reading.TrailingDigits,
		reading.Currency,
		reading.Tier,
		reading.Checksum,
	)
}

func insert(query string, args ...any) (bool, error) {
	res, err := GetDB().Exec(query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DemandReadingsBetween returns demand readings with from <= timestamp <= to, oldest first.
func DemandReadingsBetween(from, to int64) ([]DemandReading, error) {
	rows, err := GetDB().Query(
		"SELECT timestamp, meter_mac_id, watt, checksum FROM demand_readings "+
			"WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp",
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []DemandReading
	for rows.Next() {
		var r DemandReading
		if err := rows.Scan(&r.Timestamp, &r.MeterMacId, &r.Watt, &r.Checksum); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// LatestSummationReading returns nil when nothing has been stored.
func LatestSummationReading() (*SummationReading, error) {
	var r SummationReading
	err := GetDB().QueryRow(
		"SELECT timestamp, meter_mac_id, delivered_wh, received_wh, checksum FROM summation_readings " +
			"ORDER BY timestamp DESC LIMIT 1",
	).Scan(&r.Timestamp, &r.MeterMacId, &r.DeliveredWh, &r.ReceivedWh, &r.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func UpsertAggregateDemandHourly(agg *AggregateDemandHourly) error {
	_, err := GetDB().Exec(
		"INSERT OR REPLACE INTO aggregate_demand_hourly (hour_start, avg_watt, max_watt, sample_count) "+
			"VALUES (?, ?, ?, ?)",
		agg.HourStart,
		agg.AvgWatt,
		agg.MaxWatt,
		agg.SampleCount,
	)
	return err
}

// GetAggregateDemandHourly returns nil when the hour has not been aggregated.
func GetAggregateDemandHourly(hourStart int64) (*AggregateDemandHourly, error) {
	var agg AggregateDemandHourly
	err := GetDB().QueryRow(
		"SELECT hour_start, avg_watt, max_watt, sample_count FROM aggregate_demand_hourly WHERE hour_start = ?",
		hourStart,
	).Scan(&agg.HourStart, &agg.AvgWatt, &agg.MaxWatt, &agg.SampleCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
