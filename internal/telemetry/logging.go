// Package telemetry sets up process-wide structured logging and metrics.
package telemetry

import (
	stdlog "log"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

// Setup initializes the global zerolog logger. An empty logFile writes
// pretty console output to stderr; "-" writes JSON to stderr; anything
// else writes JSON to that path.
func Setup(levelName, logFile string) error {
	zerolog.TimeFieldFormat = rfc3339Milli
	switch logFile {
	case "-":
		// JSON to stderr, the zerolog default output.
	case "":
		log.Logger = log.Logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	default:
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		log.Logger = log.Logger.Output(f)
	}
	if levelName == "" {
		levelName = zerolog.InfoLevel.String()
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return err
	}
	log.Logger = log.Logger.Level(level)
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
	return nil
}

// Log is the package-wide logger; package card logs through it rather
// than holding its own configured instance.
func Log() *zerolog.Logger {
	return &log.Logger
}
