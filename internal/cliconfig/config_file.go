package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Email                string `toml:"email"`
	PrivateKeyPath       string `toml:"private_key_path"`
	PrivateKeyPassphrase string `toml:"private_key_passphrase"`
	Project              string `toml:"project"`
	Topic                string `toml:"topic"`
	AutoCreateTopic      *bool  `toml:"auto_create_topic"`
	RequestTimeout       string `toml:"request_timeout"`
	Endpoint             string `toml:"endpoint"`
	TokenURL             string `toml:"token_url"`
	Input                string `toml:"input"`
	FlushInterval        string `toml:"flush_interval"`
	MaxBatchBytes        int    `toml:"max_batch_bytes"`
	MaxBatchRecords      int    `toml:"max_batch_records"`
	RetryInitial         string `toml:"retry_initial"`
	RetryMax             string `toml:"retry_max"`
	MaxRetries           int    `toml:"max_retries"`
	WatchKey             *bool  `toml:"watch_key"`
	LogLevel             string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.pubship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pubship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("email", fc.Email, &cfg.Email)
	s.setString("private-key-path", fc.PrivateKeyPath, &cfg.PrivateKeyPath)
	s.setString("private-key-passphrase", fc.PrivateKeyPassphrase, &cfg.PrivateKeyPassphrase)
	s.setString("project", fc.Project, &cfg.Project)
	s.setString("topic", fc.Topic, &cfg.Topic)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("token-url", fc.TokenURL, &cfg.TokenURL)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"request-timeout", fc.RequestTimeout, &cfg.RequestTimeout},
		{"flush-interval", fc.FlushInterval, &cfg.FlushInterval},
		{"retry-initial", fc.RetryInitial, &cfg.RetryInitial},
		{"retry-max", fc.RetryMax, &cfg.RetryMax},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setInt("max-batch-bytes", fc.MaxBatchBytes, &cfg.MaxBatchBytes)
	s.setInt("max-batch-records", fc.MaxBatchRecords, &cfg.MaxBatchRecords)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	s.setBool("auto-create-topic", fc.AutoCreateTopic, &cfg.AutoCreateTopic)
	s.setBool("watch-key", fc.WatchKey, &cfg.WatchKey)

	return nil
}
