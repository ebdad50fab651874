package oauth

import (
	"net/http"

	"github.com/bft-labs/pubship/internal/ports"
)

// asHTTPClient adapts a ports.HTTPClient to the *http.Client that
// golang.org/x/oauth2 expects in its context.
func asHTTPClient(c ports.HTTPClient) *http.Client {
	if hc, ok := c.(*http.Client); ok {
		return hc
	}
	return &http.Client{Transport: roundTripper{c}}
}

type roundTripper struct {
	client ports.HTTPClient
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.client.Do(req)
}
