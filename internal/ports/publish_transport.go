package ports

import (
	"context"

	"github.com/bft-labs/pubship/internal/domain"
)

// Message is one wire message. Data is base64-encoded.
type Message struct {
	Data string `json:"data"`
}

// PublishBody is the JSON request body of a topic publish.
type PublishBody struct {
	Messages []Message `json:"messages"`
}

// PublishRequest describes a single topic publish call.
type PublishRequest struct {
	// TopicPath is the full resource name, "projects/{project}/topics/{topic}".
	TopicPath string

	// AuthToken is sent as a bearer credential.
	AuthToken string

	Body PublishBody
}

// PublishResponse is the raw transport-level result of a publish call.
type PublishResponse struct {
	// Success is the transport's own verdict (2xx for HTTP).
	Success    bool
	StatusCode int
	Body       []byte
}

// PublishTransport issues topic publish calls.
// An error is returned only when no response was received; the call
// deadline is carried by ctx.
type PublishTransport interface {
	Publish(ctx context.Context, req PublishRequest) (PublishResponse, error)
}

// Publisher publishes one batch of records as a single message.
type Publisher interface {
	Publish(ctx context.Context, batch *domain.Batch) error
}
