// Package logger builds the zerolog logger used by the app and its commands.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/tailbits/mortar/config"
)

// New returns a logger writing to stderr at the configured level and format.
func New(s *config.Settings) (zerolog.Logger, error) {
	return NewWithWriter(os.Stderr, s)
}

func NewWithWriter(w io.Writer, s *config.Settings) (zerolog.Logger, error) {
	if s == nil {
		s = config.Default()
	}

	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}

	if s.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
