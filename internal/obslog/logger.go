// Package obslog provides the structured logger shared across the benchmark
// host. The hot dispatch path (scheduler dispatch, plugin process calls)
// never logs — every call in this package is for orchestration-time and
// degraded-path diagnostics only.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var base zerolog.Logger

func init() {
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.Logger = base
}

// Initialize configures the global logger's level and output format.
// pretty selects a human-readable console writer for interactive use;
// otherwise output is newline-delimited JSON suitable for log collection.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		base = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		base = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	log.Logger = base

	base.Info().Str("level", logLevel.String()).Bool("pretty", pretty).Msg("logger initialized")
}

// Component returns a derived logger tagged with a component name, used by
// every package that needs to report orchestration-time events.
func Component(name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
