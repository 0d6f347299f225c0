package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/saas-admin-client/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, logger.ParseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, logger.ParseLevel(" warning "))
	require.Equal(t, zerolog.ErrorLevel, logger.ParseLevel("error"))
	require.Equal(t, zerolog.Disabled, logger.ParseLevel("off"))
	require.Equal(t, zerolog.InfoLevel, logger.ParseLevel("nonsense"))
}

func TestNewWithWriter_JSONOutsideDev(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, "info", "PROD")
	l.Info().Str("component", "test").Msg("hello")

	line := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["message"])
	require.Equal(t, "test", line["component"])
	require.Equal(t, "info", line["level"])
}
