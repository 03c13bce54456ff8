package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfigGroupedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9090", "JWTSecret": "s3cret", "AllowedOrigins": ["https://a.example"]},
		"xp": {"Timezone": "Europe/Berlin", "ProgressCacheTTLSec": 30},
		"database": {"Driver": "postgres", "DBName": "quest"},
		"log": {"Level": "debug", "Compress": true}
	}`), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	applyDefaults(&c)

	require.Equal(t, "9090", c.AppPort)
	require.Equal(t, "s3cret", c.JWTSecret)
	require.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	require.Equal(t, "Europe/Berlin", c.XPTimezone)
	require.Equal(t, 30*time.Second, c.ProgressCacheTTL)
	require.Equal(t, "postgres", c.DBDriver)
	require.Equal(t, "5432", c.DBPort)
	require.Equal(t, "quest", c.DBName)
	require.Equal(t, "debug", c.LogLevel)
	require.True(t, c.LogCompress)
}

func TestLoadJSONConfigMissingFileIsIgnored(t *testing.T) {
	var c AppConfig
	require.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))
	require.Equal(t, AppConfig{}, c)
}

func TestEnvOverridesWinOverDefaults(t *testing.T) {
	t.Setenv("XP_TIMEZONE", "Asia/Tokyo")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("DB_DRIVER", "sqlite")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	require.Equal(t, "Asia/Tokyo", c.XPTimezone)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	require.Equal(t, "sqlite", c.DBDriver)
	require.Equal(t, "UTC", AppConfig{XPTimezone: "Not/AZone"}.Location().String())
}

func TestDialectorPerDriver(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := Dialector(AppConfig{DBDriver: driver, DBName: "quest"})
		require.NoError(t, err, driver)
		require.Equal(t, driver, d.Name())
	}

	_, err := Dialector(AppConfig{DBDriver: "oracle"})
	require.Error(t, err)
}
