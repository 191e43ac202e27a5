package aggregator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/readingdb"
	. "github.com/smartystreets/goconvey/convey"
)

func insertDemand(ts int64, watt uint32) {
	_, err := readingdb.InsertDemandReading(&readingdb.DemandReading{Timestamp: ts, Watt: watt, Checksum: uint16(ts)})
	So(err, ShouldBeNil)
}

func TestHourBoundaries(t *testing.T) {
	Convey("Hours are rounded down in UTC", t, func() {
		at := time.Date(2024, 3, 1, 12, 34, 56, 0, time.UTC)
		start := roundToHourStart(at)
		So(start, ShouldEqual, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Unix())
		So(getHourEnd(start), ShouldEqual, start+3599)
	})
}

func TestAggregation(t *testing.T) {
	Convey("Given demand readings across two hours", t, func() {
		So(readingdb.InitializeDatabase(filepath.Join(t.TempDir(), "readings.db")), ShouldBeNil)
		Reset(func() { _ = readingdb.Close() })

		hour := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
		insertDemand(hour, 1000)
		insertDemand(hour+1800, 2000)
		insertDemand(hour+3599, 3001)
		insertDemand(hour+3600, 9999)

		Convey("only readings inside the hour are averaged", func() {
			result, err := AggregateDemandHourly(hour)
			So(err, ShouldBeNil)
			So(result.Stored, ShouldBeTrue)
			So(result.SampleCount, ShouldEqual, uint32(3))

			agg, err := readingdb.GetAggregateDemandHourly(hour)
			So(err, ShouldBeNil)
			So(agg.AvgWatt, ShouldEqual, uint32(2000))
			So(agg.MaxWatt, ShouldEqual, uint32(3001))
		})

		Convey("an empty hour stores nothing", func() {
			result, err := AggregateDemandHourly(hour - 3600)
			So(err, ShouldBeNil)
			So(result.Stored, ShouldBeFalse)

			agg, err := readingdb.GetAggregateDemandHourly(hour - 3600)
			So(err, ShouldBeNil)
			So(agg, ShouldBeNil)
		})

		Convey("AggregateAndCleanup handles the previous hour", func() {
			now := time.Unix(hour, 0).Add(90 * time.Minute)
			So(AggregateAndCleanup(now), ShouldBeNil)

			agg, err := readingdb.GetAggregateDemandHourly(hour)
			So(err, ShouldBeNil)
			So(agg, ShouldNotBeNil)
		})

		Convey("raw data is kept until aggregation passes the cutoff", func() {
			later := time.Unix(hour, 0).Add(RawRetention + 2*time.Hour)

			cleaned, err := CleanupOldData(later)
			So(err, ShouldBeNil)
			So(cleaned, ShouldBeFalse)

			lastHour := roundToHourStart(later.Add(-time.Hour))
			insertDemand(lastHour, 500)
			_, err = AggregateDemandHourly(lastHour)
			So(err, ShouldBeNil)

			cleaned, err = CleanupOldData(later)
			So(err, ShouldBeNil)
			So(cleaned, ShouldBeTrue)

			readings, err := readingdb.DemandReadingsBetween(hour, hour+7200)
			So(err, ShouldBeNil)
			So(readings, ShouldBeEmpty)
		})
	})
}
