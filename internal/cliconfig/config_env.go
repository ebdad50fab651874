package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "PUBSHIP_"

// ApplyEnvConfig applies configuration from environment variables (PUBSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("email", env("EMAIL"), &cfg.Email)
	s.setString("private-key-path", env("PRIVATE_KEY_PATH"), &cfg.PrivateKeyPath)
	s.setString("private-key-passphrase", env("PRIVATE_KEY_PASSPHRASE"), &cfg.PrivateKeyPassphrase)
	s.setString("project", env("PROJECT"), &cfg.Project)
	s.setString("topic", env("TOPIC"), &cfg.Topic)
	s.setString("endpoint", env("ENDPOINT"), &cfg.Endpoint)
	s.setString("token-url", env("TOKEN_URL"), &cfg.TokenURL)
	s.setString("input", env("INPUT"), &cfg.Input)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("request-timeout", env("REQUEST_TIMEOUT"), &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", env("FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("retry-initial", env("RETRY_INITIAL"), &cfg.RetryInitial); err != nil {
		return err
	}
	if err := s.setDuration("retry-max", env("RETRY_MAX"), &cfg.RetryMax); err != nil {
		return err
	}

	if err := s.setIntFromString("max-batch-bytes", env("MAX_BATCH_BYTES"), &cfg.MaxBatchBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("max-batch-records", env("MAX_BATCH_RECORDS"), &cfg.MaxBatchRecords); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", env("MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}

	s.setBoolFromString("auto-create-topic", env("AUTO_CREATE_TOPIC"), &cfg.AutoCreateTopic)
	s.setBoolFromString("watch-key", env("WATCH_KEY"), &cfg.WatchKey)

	return nil
}
