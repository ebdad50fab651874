package cliconfig

import (
	"fmt"

	"github.com/bft-labs/pubship/internal/adapters/keyfile"
)

// LoadKeyIdentity fills Email and Project from a JSON service-account key
// when they were not configured. Explicit values are never overwritten.
func LoadKeyIdentity(cfg *Config) error {
	if cfg.PrivateKeyPath == "" || (cfg.Email != "" && cfg.Project != "") {
		return nil
	}
	id, err := keyfile.ReadIdentity(cfg.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("read key identity: %w", err)
	}
	if cfg.Email == "" {
		cfg.Email = id.Email
	}
	if cfg.Project == "" {
		cfg.Project = id.Project
	}
	return nil
}
