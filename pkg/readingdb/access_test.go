package readingdb

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReadingAccess(t *testing.T) {
	Convey("Given a fresh database", t, func() {
		So(InitializeDatabase(filepath.Join(t.TempDir(), "readings.db")), ShouldBeNil)
		Reset(func() { _ = Close() })

		Convey("demand readings are deduplicated on timestamp and checksum", func() {
			reading := &DemandReading{Timestamp: 1700000000, Watt: 1204, Checksum: 0xbeef}

			written, err := InsertDemandReading(reading)
			So(err, ShouldBeNil)
			So(written, ShouldBeTrue)

			written, err = InsertDemandReading(reading)
			So(err, ShouldBeNil)
			So(written, ShouldBeFalse)

			reading.Checksum = 0xcafe
			written, err = InsertDemandReading(reading)
			So(err, ShouldBeNil)
			So(written, ShouldBeTrue)

			readings, err := DemandReadingsBetween(1700000000, 1700000000)
			So(err, ShouldBeNil)
			So(readings, ShouldHaveLength, 2)
		})

		Convey("the latest summation is returned", func() {
			latest, err := LatestSummationReading()
			So(err, ShouldBeNil)
			So(latest, ShouldBeNil)

			for i, wh := range []uint64{1000, 3000, 2000} {
				_, err := InsertSummationReading(&SummationReading{
					Timestamp:   int64(100 + i),
					DeliveredWh: wh,
					Checksum:    uint16(i),
				})
				So(err, ShouldBeNil)
			}

			latest, err = LatestSummationReading()
			So(err, ShouldBeNil)
			So(latest.Timestamp, ShouldEqual, int64(102))
			So(latest.DeliveredWh, ShouldEqual, uint64(2000))
		})

		Convey("price readings are stored", func() {
			written, err := InsertPriceReading(&PriceReading{
				Timestamp:      1700000000,
				Price:          24373,
				TrailingDigits: 5,
				Currency:       840,
				Checksum:       1,
			})
			So(err, ShouldBeNil)
			So(written, ShouldBeTrue)
		})

		Convey("hourly aggregates are replaced on upsert", func() {
			agg, err := GetAggregateDemandHourly(3600)
			So(err, ShouldBeNil)
			So(agg, ShouldBeNil)

			So(UpsertAggregateDemandHourly(&AggregateDemandHourly{HourStart: 3600, AvgWatt: 10, MaxWatt: 20, SampleCount: 2}), ShouldBeNil)
			So(UpsertAggregateDemandHourly(&AggregateDemandHourly{HourStart: 3600, AvgWatt: 15, MaxWatt: 30, SampleCount: 3}), ShouldBeNil)

			agg, err = GetAggregateDemandHourly(3600)
			So(err, ShouldBeNil)
			So(agg, ShouldResemble, &AggregateDemandHourly{HourStart: 3600, AvgWatt: 15, MaxWatt: 30, SampleCount: 3})
		})
	})
}
