package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
gateway:
  base_url: http://from-file:8000
billing:
  policy: hourly
`)
	t.Setenv("PARKING_GATEWAY_URL", "http://from-env:9000")
	t.Setenv("PARKING_BILLING_POLICY", "per_minute")
	t.Setenv("PARKING_PORT", "9090")
	t.Setenv("PARKING_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("PARKING_VAPID_PRIVATE_KEY", "priv")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.Gateway.BaseURL)
	assert.Equal(t, PolicyPerMinute, cfg.Billing.Policy)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Push.Enabled())
}

func TestLoad_EnvIgnoresBadInt(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 7000
gateway:
  base_url: http://localhost:8000
billing:
  policy: hourly
`)
	t.Setenv("PARKING_PORT", "not-a-port")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadEnv_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARKING_TEST_DOTENV=loaded\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("PARKING_TEST_DOTENV", "")
	os.Unsetenv("PARKING_TEST_DOTENV")

	log := logrus.New()
	log.SetOutput(os.Stderr)
	LoadEnv(log)
	assert.Equal(t, "loaded", os.Getenv("PARKING_TEST_DOTENV"))
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "./config/config.yaml", ConfigPath())
	t.Setenv("CONFIG_PATH", "/etc/parking.yaml")
	assert.Equal(t, "/etc/parking.yaml", ConfigPath())
}
