// Package config loads the environment-variable configuration described in
// spec.md §6, the way original_source/src/config.rs loads its typed Config
// struct: required fields fail startup, optional fields carry defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved process configuration.
type Config struct {
	RedisURL           string
	DefaultProcessorURL string
	FallbackProcessorURL string
	ServerKeepalive    time.Duration
	WorkerPoolSize     int
	LogLevel           string
	LogFormat          string
}

// Load reads configuration from the process environment. It returns an
// error (rather than calling os.Exit) so cmd/server can log and exit with
// the non-zero code spec.md §6 requires on missing required config.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_KEEPALIVE", 60)
	v.SetDefault("WORKER_POOL_SIZE", 4)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	required := []string{
		"REDIS_URL",
		"DEFAULT_PAYMENT_PROCESSOR_URL",
		"FALLBACK_PAYMENT_PROCESSOR_URL",
	}
	for _, key := range required {
		if v.GetString(key) == "" {
			return Config{}, fmt.Errorf("config: required environment variable %s is not set", key)
		}
	}

	poolSize := v.GetInt("WORKER_POOL_SIZE")
	if poolSize < 1 {
		return Config{}, fmt.Errorf("config: WORKER_POOL_SIZE must be >= 1, got %d", poolSize)
	}

	return Config{
		RedisURL:             v.GetString("REDIS_URL"),
		DefaultProcessorURL:  v.GetString("DEFAULT_PAYMENT_PROCESSOR_URL"),
		FallbackProcessorURL: v.GetString("FALLBACK_PAYMENT_PROCESSOR_URL"),
		ServerKeepalive:      time.Duration(v.GetInt("SERVER_KEEPALIVE")) * time.Second,
		WorkerPoolSize:       poolSize,
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}, nil
}
