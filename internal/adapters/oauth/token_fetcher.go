// Package oauth implements the JWT-bearer token exchange (RFC 7523) used by
// Google service accounts.
package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"

	"github.com/bft-labs/pubship/internal/ports"
)

// TokenFetcher implements ports.TokenFetcher with golang.org/x/oauth2/jwt.
type TokenFetcher struct {
	client ports.HTTPClient
}

// NewTokenFetcher creates a fetcher. A nil client uses http.DefaultClient.
func NewTokenFetcher(client ports.HTTPClient) *TokenFetcher {
	return &TokenFetcher{client: client}
}

// FetchToken signs an assertion with the grant's key and exchanges it at
// the grant's token endpoint. The deadline is carried by ctx.
func (f *TokenFetcher) FetchToken(ctx context.Context, grant ports.Grant) (ports.Token, error) {
	cfg := &jwt.Config{
		Email:        grant.Issuer,
		PrivateKey:   grant.Key.PEM,
		PrivateKeyID: grant.Key.KeyID,
		Scopes:       grant.Scopes,
		TokenURL:     grant.TokenURL,
		Audience:     grant.Audience,
	}

	if f.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, asHTTPClient(f.client))
	}

	tok, err := cfg.TokenSource(ctx).Token()
	if err != nil {
		return ports.Token{}, fmt.Errorf("fetch token: %w", err)
	}
	return ports.Token{AccessToken: tok.AccessToken, Expiry: tok.Expiry}, nil
}
