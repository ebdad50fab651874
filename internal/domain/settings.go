package domain

import (
	"regexp"
	"strings"
	"time"
)

// Defaults for optional settings.
const (
	DefaultPassphrase     = "notasecret"
	DefaultRequestTimeout = 60 * time.Second
	DefaultEndpoint       = "https://pubsub.googleapis.com"
	DefaultTokenURL       = "https://accounts.google.com/o/oauth2/token"
)

var (
	// Project ids are lowercase letters, digits and hyphens, optionally
	// prefixed by a domain ("example.com:my-project").
	projectPattern = regexp.MustCompile(`^([a-z0-9][-a-z0-9.]*[a-z0-9]:)?[a-z0-9][-a-z0-9]*[a-z0-9]$`)

	// Topic names start with a letter and contain letters, digits and
	// - _ . ~ +. The provider also allows %, which is rejected here since
	// it would be read as an escape in the request path.
	topicPattern = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9_.~+]{2,254}$`)
)

// Settings is the resolved, immutable publisher configuration.
type Settings struct {
	// Email is the service-account identity used as the token issuer.
	Email string

	// PrivateKeyPath locates the PKCS#12 or PEM signing key.
	PrivateKeyPath string

	// PrivateKeyPassphrase unlocks a PKCS#12 key.
	PrivateKeyPassphrase string

	Project string
	Topic   string

	// AutoCreateTopic is informational only; topics are never created.
	AutoCreateTopic bool

	// RequestTimeout bounds each network round-trip.
	RequestTimeout time.Duration

	// Endpoint is the base URL of the publish API.
	Endpoint string

	// TokenURL is the OAuth2 token endpoint, also used as the JWT audience.
	TokenURL string
}

// SetDefaults fills optional fields that are left empty.
func (s *Settings) SetDefaults() {
	if s.PrivateKeyPassphrase == "" {
		s.PrivateKeyPassphrase = DefaultPassphrase
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	if s.Endpoint == "" {
		s.Endpoint = DefaultEndpoint
	}
	s.Endpoint = strings.TrimRight(s.Endpoint, "/")
	if s.TokenURL == "" {
		s.TokenURL = DefaultTokenURL
	}
}

// Validate checks required fields and identifier syntax.
func (s Settings) Validate() error {
	switch {
	case s.Email == "":
		return &ConfigError{Field: "email", Reason: "must be specified"}
	case s.PrivateKeyPath == "":
		return &ConfigError{Field: "private_key_path", Reason: "must be specified"}
	case s.Project == "":
		return &ConfigError{Field: "project", Reason: "must be specified"}
	case s.Topic == "":
		return &ConfigError{Field: "topic", Reason: "must be specified"}
	}

	if !projectPattern.MatchString(s.Project) {
		return &ConfigError{Field: "project", Reason: "contains characters outside [a-z0-9-]"}
	}
	if !topicPattern.MatchString(s.Topic) || strings.HasPrefix(strings.ToLower(s.Topic), "goog") {
		return &ConfigError{Field: "topic", Reason: "is not a valid topic name"}
	}
	if s.RequestTimeout < 0 {
		return &ConfigError{Field: "request_timeout", Reason: "must not be negative"}
	}
	return nil
}

// TopicPath returns the resource name of the target topic.
func (s Settings) TopicPath() string {
	return "projects/" + s.Project + "/topics/" + s.Topic
}
