package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/zenora/backend/internal/config"
)

func TestConfigureJSON(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	Configure(logger, config.LogConfig{Level: "debug", Format: "json"}, &buf)

	logger.WithField("component", "chat").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "chat", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureUnknownLevelFallsBackToInfo(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	Configure(logger, config.LogConfig{Level: "loud", Format: "text"}, &buf)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
