package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const levelEnv = "EMU_LOG_LEVEL"

// InitLogger sets up the console logger for app and makes it the global logger.
// EMU_LOG_LEVEL overrides the level picked by debug.
func InitLogger(app string, debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if override, ok := ParseLevel(os.Getenv(levelEnv)); ok {
		level = override
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level. "diagnostics" is trace
// and "off" disables logging.
func ParseLevel(name string) (zerolog.Level, bool) {
	switch name = strings.ToLower(strings.TrimSpace(name)); name {
	case "":
		return zerolog.NoLevel, false
	case "diagnostics":
		return zerolog.TraceLevel, true
	case "off":
		return zerolog.Disabled, true
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, false
	}
	return level, true
}
