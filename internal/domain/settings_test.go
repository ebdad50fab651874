package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	return Settings{
		Email:          "svc@proj1.iam.gserviceaccount.com",
		PrivateKeyPath: "/etc/pubship/key.p12",
		Project:        "proj1",
		Topic:          "topicA",
	}
}

func TestSettings_SetDefaults(t *testing.T) {
	s := Settings{Endpoint: "http://localhost:8085/"}
	s.SetDefaults()

	assert.Equal(t, DefaultPassphrase, s.PrivateKeyPassphrase)
	assert.Equal(t, 60*time.Second, s.RequestTimeout)
	assert.Equal(t, "http://localhost:8085", s.Endpoint)
	assert.Equal(t, DefaultTokenURL, s.TokenURL)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Settings)
		wantField string
	}{
		{"valid", func(*Settings) {}, ""},
		{"missing email", func(s *Settings) { s.Email = "" }, "email"},
		{"missing private key path", func(s *Settings) { s.PrivateKeyPath = "" }, "private_key_path"},
		{"missing project", func(s *Settings) { s.Project = "" }, "project"},
		{"missing topic", func(s *Settings) { s.Topic = "" }, "topic"},
		{"project with slash", func(s *Settings) { s.Project = "proj/../x" }, "project"},
		{"project uppercase", func(s *Settings) { s.Project = "Proj1" }, "project"},
		{"domain scoped project", func(s *Settings) { s.Project = "example.com:proj1" }, ""},
		{"topic with slash", func(s *Settings) { s.Topic = "a/b/c" }, "topic"},
		{"topic with percent", func(s *Settings) { s.Topic = "top%2Fic" }, "topic"},
		{"topic too short", func(s *Settings) { s.Topic = "ab" }, "topic"},
		{"topic reserved prefix", func(s *Settings) { s.Topic = "google-logs" }, "topic"},
		{"topic punctuation", func(s *Settings) { s.Topic = "logs.app_v1~x+y-z" }, ""},
		{"negative timeout", func(s *Settings) { s.RequestTimeout = -time.Second }, "request_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.False(t, IsRetryable(err))
		})
	}
}

func TestSettings_TopicPath(t *testing.T) {
	assert.Equal(t, "projects/proj1/topics/topicA", validSettings().TopicPath())
}
