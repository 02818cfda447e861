package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.Set("data_dir", t.TempDir())
	return v
}

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	assert.Equal(t, "http://localhost:8080", v.GetString("api.base_url"))
	assert.Equal(t, 30*time.Second, v.GetDuration("api.timeout"))
	assert.Equal(t, 250*time.Millisecond, v.GetDuration("search.debounce"))
	assert.Equal(t, "warn", v.GetString("log.level"))
	assert.Contains(t, v.GetStringSlice("icons.image_extensions"), "png")
	assert.Empty(t, v.GetString("bus.url"))
}

func TestNewLogger(t *testing.T) {
	v := testViper(t)

	logger, err := NewLogger(v)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	v.Set("log.level", "loud")
	_, err = NewLogger(v)
	assert.ErrorContains(t, err, "invalid log.level")
}

func TestNewLoggerWritesFile(t *testing.T) {
	v := testViper(t)
	file := filepath.Join(t.TempDir(), "gp.log")
	v.Set("log.file", file)
	v.Set("log.level", "info")

	logger, err := NewLogger(v)
	require.NoError(t, err)
	logger.Info("hello")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNewAppPersistsInDataDir(t *testing.T) {
	v := testViper(t)

	app, err := NewApp(v, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.FileExists(t, filepath.Join(v.GetString("data_dir"), "preferences.db"))
	assert.Nil(t, app.Bridge)
	assert.Equal(t, 250*time.Millisecond, app.Debounce)
	assert.Equal(t, "workspace", app.Engine.Selected().Name)
}

func TestNewAppOverride(t *testing.T) {
	v := testViper(t)
	v.Set("bus.url", "ws://localhost:9/bus")

	app, err := NewApp(v, "dev")
	require.NoError(t, err)
	assert.NotNil(t, app.Bridge)
	assert.NoFileExists(t, filepath.Join(v.GetString("data_dir"), "preferences.db"))

	_, err = NewApp(v, "a/b")
	assert.Error(t, err)
}

func TestNewAppRejectsBadBaseURL(t *testing.T) {
	v := testViper(t)
	v.Set("api.base_url", "not a url")

	_, err := NewApp(v, "")
	assert.Error(t, err)
}
