package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/pubship/internal/app"
	"github.com/bft-labs/pubship/internal/domain"
)

// Config holds CLI configuration for pubship.
type Config struct {
	Email                string
	PrivateKeyPath       string
	PrivateKeyPassphrase string
	Project              string
	Topic                string
	AutoCreateTopic      bool
	RequestTimeout       time.Duration

	Endpoint string
	TokenURL string

	Input           string
	FlushInterval   time.Duration
	MaxBatchBytes   int
	MaxBatchRecords int
	RetryInitial    time.Duration
	RetryMax        time.Duration
	MaxRetries      int

	WatchKey bool
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		PrivateKeyPassphrase: domain.DefaultPassphrase,
		RequestTimeout:       domain.DefaultRequestTimeout,
		Endpoint:             domain.DefaultEndpoint,
		TokenURL:             domain.DefaultTokenURL,
		Input:                "-",
		FlushInterval:        app.DefaultFlushInterval,
		MaxBatchBytes:        app.DefaultMaxBatchBytes,
		RetryInitial:         app.DefaultBackoffInitial,
		RetryMax:             app.DefaultBackoffMax,
		WatchKey:             true,
		LogLevel:             "info",
	}
}

// Settings returns the publisher settings carried by the config.
func (c Config) Settings() domain.Settings {
	return domain.Settings{
		Email:                c.Email,
		PrivateKeyPath:       c.PrivateKeyPath,
		PrivateKeyPassphrase: c.PrivateKeyPassphrase,
		Project:              c.Project,
		Topic:                c.Topic,
		AutoCreateTopic:      c.AutoCreateTopic,
		RequestTimeout:       c.RequestTimeout,
		Endpoint:             c.Endpoint,
		TokenURL:             c.TokenURL,
	}
}

// AgentConfig returns the shipping loop configuration.
func (c Config) AgentConfig() app.AgentConfig {
	return app.AgentConfig{
		FlushInterval:   c.FlushInterval,
		MaxBatchBytes:   c.MaxBatchBytes,
		MaxBatchRecords: c.MaxBatchRecords,
		RetryInitial:    c.RetryInitial,
		RetryMax:        c.RetryMax,
		MaxRetries:      c.MaxRetries,
	}
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.PrivateKeyPassphrase != "" && c.PrivateKeyPassphrase != domain.DefaultPassphrase {
		c.PrivateKeyPassphrase = "*****"
	}
	return c
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	// Ensure no trailing slash
	c.Endpoint = strings.TrimRight(c.Endpoint, "/")

	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if c.MaxBatchBytes < 0 || c.MaxBatchRecords < 0 || c.MaxRetries < 0 {
		return fmt.Errorf("batch limits and max retries must not be negative")
	}
	if c.RetryMax > 0 && c.RetryMax < c.RetryInitial {
		return fmt.Errorf("retry max must not be below retry initial")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	s := c.Settings()
	s.SetDefaults()
	return s.Validate()
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
