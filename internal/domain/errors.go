package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the pubship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("pubship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("pubship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("pubship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("pubship: invalid configuration")

	// ErrAuth is matched by every AuthError.
	ErrAuth = errors.New("pubship: authentication failed")

	// ErrPublish is matched by every PublishError.
	ErrPublish = errors.New("pubship: publish failed")

	// ErrUnencodable is returned when a batch holds values that cannot be
	// serialized. Retrying the same batch cannot succeed.
	ErrUnencodable = errors.New("pubship: batch cannot be encoded")

	// ErrMalformedResponse is matched by ClassificationError.
	ErrMalformedResponse = errors.New("pubship: malformed response body")
)

// ConfigError reports a missing or invalid setting.
// It is raised once at construction time and is never retryable.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// AuthErrorKind distinguishes credential failures.
type AuthErrorKind int

const (
	// KeyLoadFailure means the signing key material is missing or malformed.
	KeyLoadFailure AuthErrorKind = iota + 1
	// TokenFetchFailure means the token endpoint could not issue a token.
	TokenFetchFailure
)

func (k AuthErrorKind) String() string {
	switch k {
	case KeyLoadFailure:
		return "key load failure"
	case TokenFetchFailure:
		return "token fetch failure"
	default:
		return "unknown"
	}
}

// AuthError is raised by the credential cache.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAuth, e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// PublishErrorKind distinguishes publish failures.
type PublishErrorKind int

const (
	// RemoteRejected means the endpoint answered with a non-success status.
	RemoteRejected PublishErrorKind = iota + 1
	// Timeout means the round-trip exceeded the request timeout.
	Timeout
	// Unreachable means the request never produced a response.
	Unreachable
)

func (k PublishErrorKind) String() string {
	switch k {
	case RemoteRejected:
		return "remote rejected"
	case Timeout:
		return "timeout"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// PublishError is raised when a publish attempt fails.
type PublishError struct {
	Kind       PublishErrorKind
	Topic      string
	StatusCode int
	// Message is the diagnostic returned by the endpoint, or the raw body.
	Message string
	Err     error
}

func (e *PublishError) Error() string {
	switch {
	case e.Kind == RemoteRejected:
		return fmt.Sprintf("%s: %s: %s returned %d: %s", ErrPublish, e.Kind, e.Topic, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", ErrPublish, e.Kind, e.Topic, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", ErrPublish, e.Kind, e.Topic)
	}
}

func (e *PublishError) Unwrap() error { return e.Err }

func (e *PublishError) Is(target error) bool {
	return target == ErrPublish
}

// ClassificationError reports a response body that looked like a JSON
// object but could not be decoded.
type ClassificationError struct {
	Body string
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedResponse, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

func (e *ClassificationError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// IsRetryable reports whether the caller should re-queue the batch and try
// again. Configuration errors and unknown errors are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidConfig) {
		return false
	}
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrPublish)
}
