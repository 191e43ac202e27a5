package logging

import (
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLevel(t *testing.T) {
	Convey("Level names map to zerolog levels", t, func() {
		level, ok := ParseLevel("debug")
		So(ok, ShouldBeTrue)
		So(level, ShouldEqual, zerolog.DebugLevel)

		level, ok = ParseLevel(" WARN ")
		So(ok, ShouldBeTrue)
		So(level, ShouldEqual, zerolog.WarnLevel)
	})

	Convey("diagnostics and off are aliases", t, func() {
		level, ok := ParseLevel("diagnostics")
		So(ok, ShouldBeTrue)
		So(level, ShouldEqual, zerolog.TraceLevel)

		level, ok = ParseLevel("off")
		So(ok, ShouldBeTrue)
		So(level, ShouldEqual, zerolog.Disabled)
	})

	Convey("Empty or unknown names do not override", t, func() {
		_, ok := ParseLevel("")
		So(ok, ShouldBeFalse)
		_, ok = ParseLevel("loud")
		So(ok, ShouldBeFalse)
	})
}

func TestInitLogger(t *testing.T) {
	Convey("The environment overrides the debug flag", t, func() {
		t.Setenv(levelEnv, "error")
		So(InitLogger("test", true).GetLevel(), ShouldEqual, zerolog.ErrorLevel)
	})

	Convey("Without an override debug selects the level", t, func() {
		t.Setenv(levelEnv, "")
		So(InitLogger("test", true).GetLevel(), ShouldEqual, zerolog.DebugLevel)
		So(InitLogger("test", false).GetLevel(), ShouldEqual, zerolog.InfoLevel)
	})
}
