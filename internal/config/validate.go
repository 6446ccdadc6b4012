package config

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var knownPlugins = map[string]bool{"zulip": true, "live": true}

func (c *Config) validate() error {
	for _, check := range []func() error{
		c.validateDatabase,
		c.validateNetwork,
		c.validateLogging,
		c.validateCORS,
		c.validatePlugins,
		c.validateZulip,
	} {
		if err := check(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	dbHost := dbURL.Hostname()
	if dbHost == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	if !isLoopback(dbHost) && dbURL.Query().Get("sslmode") == "disable" {
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if c.ListenHost != "localhost" && net.ParseIP(c.ListenHost) == nil {
		return fmt.Errorf("LISTEN_HOST must be an IP address or localhost, got %q", c.ListenHost)
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got %q", c.LogFormat)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard or glob characters, got %q", origin)
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validatePlugins() error {
	for _, name := range c.Plugins {
		if !knownPlugins[name] {
			return fmt.Errorf("PLUGINS contains unknown plugin %q", name)
		}
	}

	return nil
}

func (c *Config) validateZulip() error {
	if !c.PluginEnabled("zulip") {
		return nil
	}

	z := c.Zulip

	u, err := url.ParseRequestURI(z.APIURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("ZULIP_API_URL must be an absolute URL when the zulip plugin is enabled")
	}

	if u.Scheme != "https" && !isLoopback(u.Hostname()) {
		return fmt.Errorf("ZULIP_API_URL must use HTTPS for non-local hosts")
	}

	if _, err := mail.ParseAddress(z.Email); err != nil {
		return fmt.Errorf("ZULIP_EMAIL must be a valid address: %w", err)
	}

	if z.APIKey.Value() == "" {
		return fmt.Errorf("ZULIP_API_KEY is required when the zulip plugin is enabled")
	}

	for _, e := range z.AdminEmails {
		if _, err := mail.ParseAddress(e); err != nil {
			return fmt.Errorf("ZULIP_ADMIN_EMAILS contains invalid address %q", e)
		}
	}

	if z.Timeout <= 0 || z.Timeout > 30*time.Second {
		return fmt.Errorf("ZULIP_TIMEOUT must be between 0 and 30s, got %s", z.Timeout)
	}

	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}
