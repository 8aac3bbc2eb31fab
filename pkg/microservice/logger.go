package microservice

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the root logger for a binary. An unparsable level falls
// back to info and is reported on the returned logger.
func NewLogger(w io.Writer, level string, pretty bool, serviceName string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", serviceName).Logger()
	if err != nil {
		logger.Warn().Str("log_level", level).Msg("Unknown log level, using info.")
	}
	return logger
}
