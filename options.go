package pubship

import (
	"time"

	"github.com/rs/zerolog"

	logAdapter "github.com/bft-labs/pubship/internal/adapters/log"
	"github.com/bft-labs/pubship/internal/app"
	"github.com/bft-labs/pubship/internal/ports"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// NewZerologLogger adapts a zerolog.Logger for WithLogger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return logAdapter.NewZerologAdapterWithLogger(logger)
}

// KeyLoader reads signing keys; TokenFetcher exchanges them for tokens.
type (
	KeyLoader    = ports.KeyLoader
	TokenFetcher = ports.TokenFetcher
)

// AgentConfig tunes batching and retries of the shipping loop.
type AgentConfig = app.AgentConfig

// Option configures optional behavior of a Shipper.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	agent        AgentConfig
	keys         ports.KeyLoader
	tokens       ports.TokenFetcher
	watchKey     bool
	watchDelay   time.Duration
}

// WithHTTPClient sets the HTTP client used for token and publish calls.
// If not provided, a client with the request timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for shipper events.
// Events are called synchronously from the shipping goroutine.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithAgentConfig overrides the batching and retry configuration.
func WithAgentConfig(cfg AgentConfig) Option {
	return func(o *options) {
		o.agent = cfg
	}
}

// WithKeyLoader replaces the file based key loader.
func WithKeyLoader(keys KeyLoader) Option {
	return func(o *options) {
		o.keys = keys
	}
}

// WithTokenFetcher replaces the OAuth2 JWT-bearer token exchange.
func WithTokenFetcher(tokens TokenFetcher) Option {
	return func(o *options) {
		o.tokens = tokens
	}
}

// WithKeyWatch reloads credentials when the key file changes.
// A non-positive delay uses the default debounce.
func WithKeyWatch(delay time.Duration) Option {
	return func(o *options) {
		o.watchKey = true
		o.watchDelay = delay
	}
}
