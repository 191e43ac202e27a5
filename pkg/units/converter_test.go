package units

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConversions(t *testing.T) {
	Convey("kW to W rounds and clamps", t, func() {
		So(KwToW(1.204), ShouldEqual, uint32(1204))
		So(KwToW(0.0004), ShouldEqual, uint32(0))
		So(KwToW(-2), ShouldEqual, uint32(0))
		So(WToKw(1500), ShouldEqual, 1.5)
	})

	Convey("kWh to Wh rounds and clamps", t, func() {
		So(KwhToWh(12345.6789), ShouldEqual, uint64(12345679))
		So(KwhToWh(-1), ShouldEqual, uint64(0))
		So(WhToKwh(2500), ShouldEqual, 2.5)
	})
}
