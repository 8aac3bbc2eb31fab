package microservice_test

import (
	"bytes"
	"testing"

	"github.com/illmade-knight/go-refdata/pkg/microservice"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	t.Run("Level and service field", func(t *testing.T) {
		var buf bytes.Buffer
		logger := microservice.NewLogger(&buf, "warn", false, "refdata-api")

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"service":"refdata-api"`)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("Unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := microservice.NewLogger(&buf, "loud", false, "refdata-api")

		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
		assert.Contains(t, buf.String(), "Unknown log level")
	})
}
