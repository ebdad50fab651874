package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"

	"github.com/bft-labs/pubship/internal/ports"
)

// maxResponseBytes caps how much of a response body is kept for diagnostics.
const maxResponseBytes = 1 << 20

// PublishTransport implements ports.PublishTransport against the Pub/Sub
// REST API (POST /v1/{topic}:publish).
type PublishTransport struct {
	client    ports.HTTPClient
	endpoint  string
	userAgent string
}

// NewPublishTransport creates a transport for the given API base URL.
func NewPublishTransport(client ports.HTTPClient, endpoint, version string) *PublishTransport {
	return &PublishTransport{
		client:    client,
		endpoint:  endpoint,
		userAgent: fmt.Sprintf("pubship/%s (%s/%s)", version, runtime.GOOS, runtime.GOARCH),
	}
}

// Publish sends one publish request. A non-2xx status is reported through
// the response, not as an error.
func (t *PublishTransport) Publish(ctx context.Context, req ports.PublishRequest) (ports.PublishResponse, error) {
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return ports.PublishResponse{}, fmt.Errorf("marshal body: %w", err)
	}

	url := t.endpoint + "/v1/" + req.TopicPath + ":publish"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return ports.PublishResponse{}, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+req.AuthToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return ports.PublishResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ports.PublishResponse{}, fmt.Errorf("read response: %w", err)
	}

	return ports.PublishResponse{
		Success:    resp.StatusCode/100 == 2,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
