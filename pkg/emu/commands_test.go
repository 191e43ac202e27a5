package emu

import (
	"context"
	"errors"
	"testing"

	"github.com/NotCoffee418/emu_power/pkg/wire"
	. "github.com/smartystreets/goconvey/convey"
)

func lastWritten(sim *SimulatedTransport) wire.Command {
	written := sim.Written()
	So(written, ShouldNotBeEmpty)
	return written[len(written)-1]
}

func TestCommandBuilders(t *testing.T) {
	Convey("Given an open asynchronous session", t, func() {
		s, sim := newTestSession(Options{})
		So(s.Start("sim"), ShouldBeNil)
		Reset(func() { _ = s.Stop() })
		ctx := context.Background()

		Convey("restart carries only its name", func() {
			So(s.Restart(ctx), ShouldBeNil)
			cmd := lastWritten(sim)
			So(cmd.Name, ShouldEqual, "restart")
			So(cmd.Params, ShouldBeEmpty)
		})

		Convey("an unset meter mac is omitted", func() {
			_, err := s.GetMeterInfo(ctx, nil)
			So(err, ShouldBeNil)
			_, ok := lastWritten(sim).Param("MeterMacId")
			So(ok, ShouldBeFalse)

			_, err = s.GetMeterInfo(ctx, wire.StringPtr("0x00135003001a2b3c"))
			So(err, ShouldBeNil)
			mac, ok := lastWritten(sim).Param("MeterMacId")
			So(ok, ShouldBeTrue)
			So(mac, ShouldEqual, "0x00135003001a2b3c")
		})

		Convey("refresh is sent as Y or N", func() {
			_, err := s.GetTime(ctx, nil, false)
			So(err, ShouldBeNil)
			refresh, _ := lastWritten(sim).Param("Refresh")
			So(refresh, ShouldEqual, "N")
		})

		Convey("set_schedule formats frequency and enabled", func() {
			So(s.SetSchedule(ctx, nil, "demand", 10, true), ShouldBeNil)
			cmd := lastWritten(sim)
			So(cmd.Fields(), ShouldResemble, []wire.Field{
				{Name: "Event", Value: "demand"},
				{Name: "Frequency", Value: "0x0000000a"},
				{Name: "Enabled", Value: "Y"},
			})
		})

		Convey("schedule events are validated before anything is written", func() {
			err := s.SetSchedule(ctx, nil, "weather", 10, true)
			So(errors.Is(err, ErrInvalidEvent), ShouldBeTrue)

			_, err = s.GetSchedule(ctx, nil, wire.StringPtr("weather"))
			So(errors.Is(err, ErrInvalidEvent), ShouldBeTrue)

			So(sim.Written(), ShouldBeEmpty)
		})

		Convey("get_schedule accepts no event", func() {
			_, err := s.GetSchedule(ctx, nil, nil)
			So(err, ShouldBeNil)
			_, ok := lastWritten(sim).Param("Event")
			So(ok, ShouldBeFalse)
		})

		Convey("set_meter_info only sends the fields given", func() {
			err := s.SetMeterInfo(ctx, MeterInfoUpdate{
				NickName: wire.StringPtr("house"),
				Enabled:  wire.BoolPtr(false),
			})
			So(err, ShouldBeNil)
			So(lastWritten(sim).Fields(), ShouldResemble, []wire.Field{
				{Name: "NickName", Value: "house"},
				{Name: "Enabled", Value: "N"},
			})
		})

		Convey("confirm_message requires an id", func() {
			err := s.ConfirmMessage(ctx, nil, nil)
			So(errors.Is(err, ErrMissingParameter), ShouldBeTrue)

			id := uint64(0x2a)
			So(s.ConfirmMessage(ctx, nil, &id), ShouldBeNil)
			v, _ := lastWritten(sim).Param("Id")
			So(v, ShouldEqual, "0x0000002a")
		})

		Convey("set_current_price encodes price and trailing digits", func() {
			So(s.SetCurrentPrice(ctx, nil, "24.373"), ShouldBeNil)
			cmd := lastWritten(sim)
			price, _ := cmd.Param("Price")
			trailing, _ := cmd.Param("TrailingDigits")
			So(price, ShouldEqual, "0x00005f35")
			So(trailing, ShouldEqual, "0x05")
		})

		Convey("set_fast_poll uses four digit hex", func() {
			So(s.SetFastPoll(ctx, nil, 4, 15), ShouldBeNil)
			So(lastWritten(sim).Fields(), ShouldResemble, []wire.Field{
				{Name: "Frequency", Value: "0x0004"},
				{Name: "Duration", Value: "0x000f"},
			})
		})
	})
}

func TestParsePrice(t *testing.T) {
	Convey("Whole cents carry two trailing digits", t, func() {
		value, trailing, err := parsePrice("12")
		So(err, ShouldBeNil)
		So(value, ShouldEqual, uint64(12))
		So(trailing, ShouldEqual, uint64(2))
	})

	Convey("Decimals add to the trailing digits", t, func() {
		value, trailing, err := parsePrice("0.5")
		So(err, ShouldBeNil)
		So(value, ShouldEqual, uint64(5))
		So(trailing, ShouldEqual, uint64(3))
	})

	Convey("Non numeric prices are rejected", t, func() {
		for _, price := range []string{"", ".", "abc", "1.2.3", "-4"} {
			_, _, err := parsePrice(price)
			So(errors.Is(err, ErrInvalidPrice), ShouldBeTrue)
		}
	})
}
