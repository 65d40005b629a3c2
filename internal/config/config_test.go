package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()

	path := writeConfigFile(t, `
server:
  port: 9090
realtime:
  bridge: true
auth:
  jwt_secret: file-secret
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Realtime.Bridge)
	require.Equal(t, "file-secret", cfg.Auth.JWTSecret)

	// Unset keys keep their defaults.
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8081, cfg.Realtime.Port)
	require.Equal(t, "0 0 9 * * *", cfg.Reminder.Schedule)
	require.Equal(t, 25, cfg.MySQL.MaxOpenConns)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	viper.Reset()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFromFile_RequiresJWTSecret(t *testing.T) {
	viper.Reset()

	path := writeConfigFile(t, `
server:
  port: 9090
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "jwt_secret")
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "7070")
	// keep any local config.yaml out of the search path (t.Chdir needs Go 1.24+)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "deal-service-1", cfg.Instance.ID)
}
