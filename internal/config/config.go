// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Store backends selectable with REPOCONFIG_STORE.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Log output formats selectable with REPOCONFIG_LOG_FORMAT.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr     string
	DataPath       string
	Store          string
	DBPath         string
	CORSOrigins    []string
	MetricsEnabled bool
	LogLevel       slog.Level
	LogFormat      string
}

// defaultCORSOrigins are the Vite dev-server origins of the front-end.
var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:5174"}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: REPOCONFIG_LISTEN_ADDR (127.0.0.1:3000),
// REPOCONFIG_DATA_PATH (data/repositories.json), REPOCONFIG_STORE (json),
// REPOCONFIG_DB_PATH (repoconfig.db), REPOCONFIG_CORS_ORIGINS (the two local
// Vite origins), REPOCONFIG_METRICS_ENABLED (true), REPOCONFIG_LOG_LEVEL (info),
// REPOCONFIG_LOG_FORMAT (text).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     "127.0.0.1:3000",
		DataPath:       "data/repositories.json",
		Store:          StoreJSON,
		DBPath:         "repoconfig.db",
		CORSOrigins:    append([]string(nil), defaultCORSOrigins...),
		MetricsEnabled: true,
		LogLevel:       slog.LevelInfo,
		LogFormat:      LogFormatText,
	}

	if v, ok := os.LookupEnv("REPOCONFIG_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("REPOCONFIG_DATA_PATH"); ok && v != "" {
		cfg.DataPath = v
	}

	if v, ok := os.LookupEnv("REPOCONFIG_STORE"); ok && v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != StoreJSON && v != StoreSQLite {
			return nil, fmt.Errorf("REPOCONFIG_STORE must be %q or %q, got %q", StoreJSON, StoreSQLite, v)
		}
		cfg.Store = v
	}

	if v, ok := os.LookupEnv("REPOCONFIG_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("REPOCONFIG_CORS_ORIGINS"); ok {
		origins := []string{}
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.CORSOrigins = origins
	}

	if v, ok := os.LookupEnv("REPOCONFIG_METRICS_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("REPOCONFIG_METRICS_ENABLED has invalid boolean %q: %w", v, err)
		}
		cfg.MetricsEnabled = enabled
	}

	if v, ok := os.LookupEnv("REPOCONFIG_LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("REPOCONFIG_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	if v, ok := os.LookupEnv("REPOCONFIG_LOG_FORMAT"); ok && v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != LogFormatText && v != LogFormatJSON {
			return nil, fmt.Errorf("REPOCONFIG_LOG_FORMAT must be %q or %q, got %q", LogFormatText, LogFormatJSON, v)
		}
		cfg.LogFormat = v
	}

	return cfg, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
