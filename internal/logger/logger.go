package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "agro-service"

func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.DebugLevel
	if env == "production" {
		level = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if env == "production" {
		base = zerolog.New(os.Stdout)
	} else {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	return base.Level(level).With().Timestamp().Str("service", serviceName).Logger()
}
