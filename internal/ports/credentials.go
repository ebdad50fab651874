package ports

import (
	"context"
	"time"
)

// SigningKey is PEM-encoded private key material used to sign JWT assertions.
type SigningKey struct {
	// PEM holds a PKCS#8 or PKCS#1 private key block.
	PEM []byte

	// KeyID is the optional key identifier placed in the JWT header.
	KeyID string
}

// KeyLoader reads signing material from a locator (usually a file path).
type KeyLoader interface {
	LoadKey(locator, passphrase string) (SigningKey, error)
}

// Grant is the authorization context used to mint access tokens.
// It is built once and reused for every refresh.
type Grant struct {
	Issuer   string
	Scopes   []string
	Audience string
	TokenURL string
	Key      SigningKey
}

// Token is a time-bounded access credential.
type Token struct {
	AccessToken string

	// Expiry is when the token stops being valid. The zero value means
	// the token does not expire.
	Expiry time.Time
}

// TokenFetcher exchanges a grant for a fresh access token.
type TokenFetcher interface {
	// FetchToken performs one synchronous round-trip to the token endpoint.
	FetchToken(ctx context.Context, grant Grant) (Token, error)
}
