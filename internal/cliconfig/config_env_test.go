package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"PUBSHIP_EMAIL":             "svc@example.com",
				"PUBSHIP_PROJECT":           "proj1",
				"PUBSHIP_TOPIC":             "logs",
				"PUBSHIP_REQUEST_TIMEOUT":   "15s",
				"PUBSHIP_MAX_BATCH_RECORDS": "100",
				"PUBSHIP_AUTO_CREATE_TOPIC": "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Email:           "svc@example.com",
				Project:         "proj1",
				Topic:           "logs",
				RequestTimeout:  15 * time.Second,
				MaxBatchRecords: 100,
				AutoCreateTopic: true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"PUBSHIP_TOPIC":   "env-topic",
				"PUBSHIP_PROJECT": "env-project",
			},
			changed: map[string]bool{"topic": true},
			initial: Config{
				Topic: "flag-topic",
			},
			expected: Config{
				Topic:   "flag-topic",
				Project: "env-project",
			},
		},
		{
			name: "watch key accepts 1 and anything else is false",
			envVars: map[string]string{
				"PUBSHIP_WATCH_KEY":         "no",
				"PUBSHIP_AUTO_CREATE_TOPIC": "1",
			},
			changed:  map[string]bool{},
			initial:  Config{WatchKey: true},
			expected: Config{WatchKey: false, AutoCreateTopic: true},
		},
		{
			name: "ignores non-positive integers",
			envVars: map[string]string{
				"PUBSHIP_MAX_RETRIES": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{MaxRetries: 4},
			expected: Config{MaxRetries: 4},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"PUBSHIP_FLUSH_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"PUBSHIP_MAX_BATCH_BYTES": "lots",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
