package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-api/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("ruido"))
}

func TestNew_JSONConCamposFijos(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", App: "farmacia-api", Out: &buf})

	log.Component("inventory").Info().Str("branch", "001").Msg("recepción registrada")
	log.Debug().Msg("descartado por nivel")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "farmacia-api", ev["app"])
	assert.Equal(t, "inventory", ev["component"])
	assert.Equal(t, "001", ev["branch"])
	assert.Equal(t, "recepción registrada", ev["message"])
}
