package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/pubship/internal/ports"
)

func testKey(t *testing.T) ports.SigningKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return ports.SigningKey{PEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), KeyID: "kid-1"}
}

func decodeClaims(t *testing.T, assertion string) map[string]any {
	t.Helper()
	parts := strings.Split(assertion, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(raw, &claims))
	return claims
}

func TestFetchToken(t *testing.T) {
	var grantType, assertion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		grantType = r.PostForm.Get("grant_type")
		assertion = r.PostForm.Get("assertion")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	grant := ports.Grant{
		Issuer:   "svc@proj1.iam.gserviceaccount.com",
		Scopes:   []string{"https://www.googleapis.com/auth/pubsub", "https://www.googleapis.com/auth/cloud-platform"},
		Audience: srv.URL,
		TokenURL: srv.URL,
		Key:      testKey(t),
	}

	before := time.Now()
	tok, err := NewTokenFetcher(srv.Client()).FetchToken(context.Background(), grant)
	require.NoError(t, err)

	assert.Equal(t, "ya29.token", tok.AccessToken)
	assert.WithinDuration(t, before.Add(time.Hour), tok.Expiry, time.Minute)

	assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", grantType)
	claims := decodeClaims(t, assertion)
	assert.Equal(t, grant.Issuer, claims["iss"])
	assert.Equal(t, srv.URL, claims["aud"])
	assert.Equal(t, strings.Join(grant.Scopes, " "), claims["scope"])
}

func TestFetchToken_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`))
	}))
	defer srv.Close()

	_, err := NewTokenFetcher(srv.Client()).FetchToken(context.Background(), ports.Grant{
		Issuer:   "svc@proj1.iam.gserviceaccount.com",
		TokenURL: srv.URL,
		Audience: srv.URL,
		Key:      testKey(t),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestFetchToken_BadKey(t *testing.T) {
	_, err := NewTokenFetcher(nil).FetchToken(context.Background(), ports.Grant{
		Issuer:   "svc@proj1.iam.gserviceaccount.com",
		TokenURL: "http://127.0.0.1:0/token",
		Key:      ports.SigningKey{PEM: []byte("not a key")},
	})
	assert.Error(t, err)
}

type countingClient struct {
	calls int
	inner *http.Client
}

func (c *countingClient) Do(req *http.Request) (*http.Response, error) {
	c.calls++
	return c.inner.Do(req)
}

func TestFetchToken_CustomHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"t","token_type":"Bearer","expires_in":60}`))
	}))
	defer srv.Close()

	client := &countingClient{inner: srv.Client()}
	_, err := NewTokenFetcher(client).FetchToken(context.Background(), ports.Grant{
		Issuer:   "svc@proj1.iam.gserviceaccount.com",
		TokenURL: srv.URL,
		Audience: srv.URL,
		Key:      testKey(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
}
