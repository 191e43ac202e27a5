package readingdb

// Timestamps are unix seconds. Device times are converted before insert.

type DemandReading struct {
	Timestamp  int64  `db:"timestamp"`
	MeterMacId string `db:"meter_mac_id"`
	Watt       uint32 `db:"watt"`
	Checksum   uint16 `db:"checksum"`
}

type SummationReading struct {
	Timestamp   int64  `db:"timestamp"`
	MeterMacId  string `db:"meter_mac_id"`
	DeliveredWh uint64 `db:"delivered_wh"`
	ReceivedWh  uint64 `db:"received_wh"`
	Checksum    uint16 `db:"checksum"`
}

type PriceReading struct {
	Timestamp      int64  `db:"timestamp"`
	MeterMacId     string `db:"meter_mac_id"`
	Price          uint64 `db:"price"`
	TrailingDigits uint64 `db:"trailing_digits"`
	Currency       uint64 `db:"currency"`
	Tier           string `db:"tier"`
	Checksum       uint16 `db:"checksum"`
}

type AggregateDemandHourly struct {
	HourStart   int64  `db:"hour_start"`
	AvgWatt     uint32 `db:"avg_watt"`
	MaxWatt     uint32 `db:"max_watt"`
	SampleCount uint32 `db:"sample_count"`
}
