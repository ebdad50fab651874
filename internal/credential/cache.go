// Package credential owns the access token used to authorize publish calls.
//
// The cache is lazy: the signing key is loaded and the first token fetched on
// the first call to [Cache.Token]. Expired tokens are refreshed with the same
// grant. All state transitions happen under a single mutex, so concurrent
// callers that observe an expired token trigger exactly one refresh.
package credential

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/pubship/internal/domain"
	"github.com/bft-labs/pubship/internal/ports"
)

// OAuth2 scopes requested for publishing.
const (
	ScopePubSub        = "https://www.googleapis.com/auth/pubsub"
	ScopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"
)

// DefaultExpiryDelta is how long before its stated expiry a token is
// treated as expired, so it is not used while in flight.
const DefaultExpiryDelta = 10 * time.Second

// Config identifies the service account and where its key lives.
type Config struct {
	Email          string
	PrivateKeyPath string
	Passphrase     string
	TokenURL       string

	// ExpiryDelta overrides DefaultExpiryDelta when positive.
	ExpiryDelta time.Duration
}

// Cache holds at most one token and the grant used to mint it.
type Cache struct {
	cfg     Config
	keys    ports.KeyLoader
	fetcher ports.TokenFetcher
	logger  ports.Logger
	now     func() time.Time

	mu    sync.Mutex
	grant *ports.Grant
	token *ports.Token
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for refresh observations.
func WithLogger(logger ports.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty cache. No key is loaded and no network call is
// made until Token is called.
func NewCache(cfg Config, keys ports.KeyLoader, fetcher ports.TokenFetcher, opts ...Option) *Cache {
	if cfg.ExpiryDelta <= 0 {
		cfg.ExpiryDelta = DefaultExpiryDelta
	}
	c := &Cache{
		cfg:     cfg,
		keys:    keys,
		fetcher: fetcher,
		logger:  ports.Discard,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a valid access token, creating or refreshing it as needed.
// It blocks for the duration of any token round-trip.
func (c *Cache) Token(ctx context.Context) (ports.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.grant == nil {
		grant, err := c.buildGrant()
		if err != nil {
			return ports.Token{}, err
		}
		c.grant = grant
		c.token = nil
	}

	if c.token != nil && !c.expired(*c.token) {
		return *c.token, nil
	}

	refreshing := c.token != nil
	tok, err := c.fetcher.FetchToken(ctx, *c.grant)
	if err != nil {
		return ports.Token{}, &domain.AuthError{Kind: domain.TokenFetchFailure, Err: err}
	}
	c.token = &tok

	c.logger.Debug("access token acquired",
		ports.Bool("refresh", refreshing),
		ports.Time("expiry", tok.Expiry),
	)
	return tok, nil
}

// Invalidate discards the cached grant and token. The next call to Token
// reloads the signing key.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grant = nil
	c.token = nil
}

func (c *Cache) buildGrant() (*ports.Grant, error) {
	key, err := c.keys.LoadKey(c.cfg.PrivateKeyPath, c.cfg.Passphrase)
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.KeyLoadFailure, Err: err}
	}
	return &ports.Grant{
		Issuer:   c.cfg.Email,
		Scopes:   []string{ScopePubSub, ScopeCloudPlatform},
		Audience: c.cfg.TokenURL,
		TokenURL: c.cfg.TokenURL,
		Key:      key,
	}, nil
}

// expired follows the oauth2 convention: a zero expiry never expires.
func (c *Cache) expired(tok ports.Token) bool {
	if tok.Expiry.IsZero() {
		return false
	}
	return !c.now().Add(c.cfg.ExpiryDelta).Before(tok.Expiry)
}
