package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadEnv loads variables from local .env files into the process
// environment. Missing files are not an error.
func LoadEnv(log logrus.FieldLogger) {
	files := []string{".env", ".env.local"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.WithError(err).Warnf("failed to load %s", file)
			continue
		}
		loaded = append(loaded, file)
	}
	if len(loaded) > 0 {
		log.Debugf("loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// ConfigPath returns CONFIG_PATH or the local development default.
func ConfigPath() string {
	return getEnv("CONFIG_PATH", "./config/config.yaml")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// applyEnv lets the environment override secrets and deployment-specific
// values from the file.
func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("PARKING_PORT", c.Server.Port)
	c.Log.Level = getEnv("PARKING_LOG_LEVEL", c.Log.Level)
	c.Gateway.BaseURL = getEnv("PARKING_GATEWAY_URL", c.Gateway.BaseURL)
	c.Gateway.HTTPProxy = getEnv("PARKING_HTTP_PROXY", c.Gateway.HTTPProxy)
	c.Database.Driver = getEnv("PARKING_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("PARKING_DB_DSN", c.Database.DSN)
	c.Billing.Policy = getEnv("PARKING_BILLING_POLICY", c.Billing.Policy)
	c.Push.PublicKey = getEnv("PARKING_VAPID_PUBLIC_KEY", c.Push.PublicKey)
	c.Push.PrivateKey = getEnv("PARKING_VAPID_PRIVATE_KEY", c.Push.PrivateKey)
}
