package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"yogastudio/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	appCfg := config.AppConfig{Name: "yoga", Environment: "test", Version: "1.0.0"}

	t.Run("Defaults", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{}, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("Console", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{Level: "warn", Format: "console", Output: "stderr"}, appCfg)
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "studio.log")
		logger, closer, err := New(config.LoggingConfig{Level: "info", Output: "file", FilePath: logPath}, appCfg)
		require.NoError(t, err)
		require.NotNil(t, closer)

		logger.Info().Msg("hello")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"app":"yoga"`)
		assert.Contains(t, string(data), "hello")
	})

	t.Run("FileWithoutPath", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "file"}, appCfg)
		assert.Error(t, err)
	})

	t.Run("BadLevel", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Level: "loud"}, appCfg)
		assert.Error(t, err)
	})

	t.Run("UnknownOutput", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "syslog"}, appCfg)
		assert.Error(t, err)
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := Component(&base, "api")
	l.Info().Msg("x")
	assert.Contains(t, buf.String(), `"component":"api"`)

	assert.NotNil(t, Component(nil, "none"))
}
