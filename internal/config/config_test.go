package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "umqtt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
connect:
  client_id: "sensor-1"
  keep_alive: 30
  clean_session: false
  username: user
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Unset keys keep their defaults.
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, "sensor-1", cfg.Connect.ClientID)
	assert.Equal(t, 30, cfg.Connect.KeepAlive)
	assert.False(t, cfg.Connect.CleanSession)
	assert.Equal(t, "user", cfg.Connect.Username)
	assert.Empty(t, cfg.Connect.Password)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
connect:
  client_id: "from-file"
`)
	t.Setenv("UMQTT_LOG_LEVEL", "warn")
	t.Setenv("UMQTT_CONNECT_CLIENT_ID", "from-env")
	t.Setenv("UMQTT_CONNECT_KEEP_ALIVE", "0")
	t.Setenv("UMQTT_CONNECT_CLEAN_SESSION", "false")
	t.Setenv("UMQTT_CONNECT_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Connect.ClientID)
	assert.Equal(t, 0, cfg.Connect.KeepAlive)
	assert.False(t, cfg.Connect.CleanSession)
	assert.Equal(t, "secret", cfg.Connect.Password)

	t.Setenv("UMQTT_CONNECT_KEEP_ALIVE", "soon")
	_, err = Load(path)
	assert.ErrorContains(t, err, "UMQTT_CONNECT_KEEP_ALIVE")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/umqtt.yaml")
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeConfig(t, "log: [unterminated"))
	assert.ErrorContains(t, err, "parsing config file")

	_, err = Load(writeConfig(t, `
log:
  level: verbose
  format: xml
connect:
  keep_alive: 70000
`))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "log.level")
		assert.Contains(t, err.Error(), "log.format")
		assert.Contains(t, err.Error(), "connect.keep_alive")
	}
}

func TestLogConfigApply(t *testing.T) {
	logger := log.New()
	closer, err := LogConfig{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	}.Apply(logger)
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)
	assert.Equal(t, os.Stdout, logger.Out)

	path := filepath.Join(t.TempDir(), "umqtt.log")
	closer, err = LogConfig{
		Level:  "error",
		Format: "text",
		Output: path,
	}.Apply(logger)
	require.NoError(t, err)
	logger.Error("written to file")
	require.NoError(t, closer.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")

	_, err = LogConfig{Level: "trace"}.Apply(logger)
	assert.Error(t, err)
}
