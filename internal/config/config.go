// Package config provides environment-driven configuration for the backlog tracker.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// ZulipConfig holds the chat notifier settings.
type ZulipConfig struct {
	APIURL      string
	Email       string
	APIKey      Secret
	BotName     string
	AdminEmails []string
	Timeout     time.Duration
}

// Config holds all application configuration values.
type Config struct {
	DatabaseURL  Secret
	DBMaxConns   int
	Port         string
	ListenHost   string
	CORSOrigins  []string
	LogLevel     string
	LogFormat    string
	RateLimit    int
	RateBurst    int
	MaxBodyBytes int64
	Plugins      []string
	Zulip        ZulipConfig
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "3040"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "text"),
		CORSOrigins: splitList(envOrDefault("CORS_ORIGINS", "http://localhost:3000")),
		Plugins:     pluginList(),
		Zulip: ZulipConfig{
			APIURL:      strings.TrimRight(envOrDefault("ZULIP_API_URL", ""), "/"),
			Email:       envOrDefault("ZULIP_EMAIL", ""),
			APIKey:      Secret(envOrDefault("ZULIP_API_KEY", "")),
			BotName:     envOrDefault("ZULIP_BOT_NAME", "pipo"),
			AdminEmails: splitList(envOrDefault("ZULIP_ADMIN_EMAILS", "")),
		},
	}

	var err error

	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", 20, 1, 200); err != nil {
		return nil, err
	}

	if cfg.RateLimit, err = envInt("RATE_LIMIT", 50, 1, 100000); err != nil {
		return nil, err
	}

	if cfg.RateBurst, err = envInt("RATE_BURST", 100, 1, 100000); err != nil {
		return nil, err
	}

	maxBody, err := envInt("MAX_BODY_BYTES", 1<<20, 1024, 64<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	if cfg.Zulip.Timeout, err = time.ParseDuration(envOrDefault("ZULIP_TIMEOUT", "1s")); err != nil {
		return nil, fmt.Errorf("ZULIP_TIMEOUT must be a duration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// PluginEnabled reports whether name appears in PLUGINS.
func (c *Config) PluginEnabled(name string) bool {
	return slices.Contains(c.Plugins, name)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback, minVal, maxVal int) (int, error) {
	v, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(fallback)))
	if err != nil || v < minVal || v > maxVal {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, minVal, maxVal)
	}

	return v, nil
}

// pluginList reads PLUGINS. Unset selects the default pair; set but empty
// selects no plugins.
func pluginList() []string {
	v, ok := os.LookupEnv("PLUGINS")
	if !ok {
		v = "zulip,live"
	}

	if out := splitList(v); out != nil {
		return out
	}

	return []string{}
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
