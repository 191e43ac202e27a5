package main

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/readingdb"
	"github.com/NotCoffee418/emu_power/pkg/types"
	. "github.com/smartystreets/goconvey/convey"
)

func update(kind entities.Kind, checksum uint16, record any) *types.EntityUpdate {
	data, err := json.Marshal(record)
	So(err, ShouldBeNil)
	return &types.EntityUpdate{Kind: kind, Checksum: checksum, Record: data}
}

func TestStoreUpdate(t *testing.T) {
	Convey("Given a fresh database", t, func() {
		So(readingdb.InitializeDatabase(filepath.Join(t.TempDir(), "readings.db")), ShouldBeNil)
		Reset(func() { _ = readingdb.Close() })

		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		deviceTime := entities.ToDeviceTime(at)

		Convey("demand is stored in watts at wall clock time", func() {
			u := update(entities.KindInstantaneousDemand, 7, entities.InstantaneousDemand{
				TimeStamp: deviceTime,
				Demand:    1204,
				Reading:   1.204,
			})

			written, err := storeUpdate(u)
			So(err, ShouldBeNil)
			So(written, ShouldBeTrue)

			written, err = storeUpdate(u)
			So(err, ShouldBeNil)
			So(written, ShouldBeFalse)

			readings, err := readingdb.DemandReadingsBetween(at.Unix(), at.Unix())
			So(err, ShouldBeNil)
			So(readings, ShouldHaveLength, 1)
			So(readings[0].Watt, ShouldEqual, uint32(1204))
		})

		Convey("summation is stored in watt hours", func() {
			u := update(entities.KindCurrentSummationDelivered, 1, entities.CurrentSummationDelivered{
				Metering:           entities.Metering{Multiplier: 1, Divisor: 1000},
				TimeStamp:          deviceTime,
				SummationDelivered: 5000500,
				SummationReceived:  2000,
				Reading:            5000.5,
			})
			written, err := storeUpdate(u)
			So(err, ShouldBeNil)
			So(written, ShouldBeTrue)

			latest, err := readingdb.LatestSummationReading()
			So(err, ShouldBeNil)
			So(latest.DeliveredWh, ShouldEqual, uint64(5000500))
			So(latest.ReceivedWh, ShouldEqual, uint64(2000))
		})

		Convey("prices are stored", func() {
			written, err := storeUpdate(update(entities.KindPriceCluster, 2, entities.PriceCluster{
				TimeStamp:      deviceTime,
				Price:          24373,
				TrailingDigits: 5,
				Currency:       840,
			}))
			So(err, ShouldBeNil)
			So(written, ShouldBeTrue)
		})

		Convey("other kinds are ignored", func() {
			written, err := storeUpdate(update(entities.KindConnectionStatus, 3, entities.ConnectionStatus{Status: "Connected"}))
			So(err, ShouldBeNil)
			So(written, ShouldBeFalse)
		})
	})
}
