package logging

import (
	"os"

	"github.com/rs/zerolog"
)

func defaultLevel() zerolog.Level {
	if lvl, err := zerolog.ParseLevel(os.Getenv("PIGGY_LOG")); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}

var RootLogger zerolog.Logger = zerolog.New(
	zerolog.NewConsoleWriter(
		func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr },
		func(w *zerolog.ConsoleWriter) { w.TimeFormat = "15:04:05.000" })).Level(defaultLevel()).
	With().Timestamp().Logger()
