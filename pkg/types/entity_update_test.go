package types

import (
	"testing"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/store"
	"github.com/NotCoffee418/emu_power/pkg/wire"
	. "github.com/smartystreets/goconvey/convey"
)

func demandEntity() store.Entity {
	msg := wire.Message{
		Kind: string(entities.KindInstantaneousDemand),
		Fields: []wire.Field{
			{Name: "TimeStamp", Value: "0x1c531d6b"},
			{Name: "Demand", Value: "0x0004b4"},
			{Name: "Multiplier", Value: "0x01"},
			{Name: "Divisor", Value: "0x03e8"},
		},
		Raw: []byte("<InstantaneousDemand><Demand>0x0004b4</Demand></InstantaneousDemand>"),
	}
	rec, _ := entities.Parse(msg)
	return store.Entity{
		Kind:       entities.KindInstantaneousDemand,
		Message:    msg,
		Record:     rec,
		Fresh:      true,
		ReceivedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEntityUpdate(t *testing.T) {
	Convey("Given an update built from a stored entity", t, func() {
		e := demandEntity()
		u, err := EntityUpdateFromEntity(e)
		So(err, ShouldBeNil)
		So(u.Checksum, ShouldEqual, e.Message.Checksum())

		Convey("it survives the websocket encoding", func() {
			data, err := u.ToJsonBytes()
			So(err, ShouldBeNil)

			decoded := EntityUpdateFromJsonBytes(data)
			So(decoded, ShouldNotBeNil)
			So(decoded.Kind, ShouldEqual, entities.KindInstantaneousDemand)
			So(decoded.ReceivedAt.Equal(e.ReceivedAt), ShouldBeTrue)

			demand, err := decoded.Demand()
			So(err, ShouldBeNil)
			So(demand.Demand, ShouldEqual, uint64(0x4b4))
			So(demand.Reading, ShouldEqual, 1.204)
		})

		Convey("decoding it as another kind fails", func() {
			_, err := u.Price()
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Garbage is not an update", t, func() {
		So(EntityUpdateFromJsonBytes([]byte("not json")), ShouldBeNil)
		So(EntityUpdateFromJsonBytes([]byte(`{"checksum":1}`)), ShouldBeNil)
	})
}
