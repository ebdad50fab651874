// Package publisher publishes record batches to a Pub/Sub topic.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/bft-labs/pubship/internal/classify"
	"github.com/bft-labs/pubship/internal/credential"
	"github.com/bft-labs/pubship/internal/domain"
	"github.com/bft-labs/pubship/internal/encoder"
	"github.com/bft-labs/pubship/internal/ports"
)

// Observation event names.
const (
	eventPublished = "DONE pubsub.projects.topics.publish"
	eventFailed    = "pubsub.projects.topics.publish"
)

// Publisher orchestrates a single publish attempt per call. It never
// retries; callers re-queue the batch when Publish fails.
type Publisher struct {
	settings  domain.Settings
	topic     string
	creds     *credential.Cache
	transport ports.PublishTransport
	logger    ports.Logger
}

// Option configures a Publisher.
type Option func(*options)

type options struct {
	logger    ports.Logger
	cacheOpts []credential.Option
}

// WithLogger sets the observer for publish outcomes.
func WithLogger(logger ports.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCredentialOptions passes options through to the credential cache.
func WithCredentialOptions(opts ...credential.Option) Option {
	return func(o *options) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// New validates settings and wires the publisher. It performs no I/O;
// a *domain.ConfigError is returned for invalid settings.
func New(
	settings domain.Settings,
	keys ports.KeyLoader,
	tokens ports.TokenFetcher,
	transport ports.PublishTransport,
	opts ...Option,
) (*Publisher, error) {
	settings.SetDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: ports.Discard}
	for _, opt := range opts {
		opt(&o)
	}

	cacheOpts := append([]credential.Option{credential.WithLogger(o.logger)}, o.cacheOpts...)
	creds := credential.NewCache(credential.Config{
		Email:          settings.Email,
		PrivateKeyPath: settings.PrivateKeyPath,
		Passphrase:     settings.PrivateKeyPassphrase,
		TokenURL:       settings.TokenURL,
	}, keys, tokens, cacheOpts...)

	if settings.AutoCreateTopic {
		o.logger.Warn("auto_create_topic is set but topics are never created",
			ports.String("topic", settings.TopicPath()),
		)
	}

	return &Publisher{
		settings:  settings,
		topic:     settings.TopicPath(),
		creds:     creds,
		transport: transport,
		logger:    o.logger,
	}, nil
}

// Topic returns the resource name publishes are sent to.
func (p *Publisher) Topic() string {
	return p.topic
}

// Credentials exposes the token cache so key rotation can invalidate it.
func (p *Publisher) Credentials() *credential.Cache {
	return p.creds
}

// Publish sends the batch as one message. An empty batch is a no-op.
// Errors are *domain.AuthError, *domain.PublishError, or wrap
// domain.ErrUnencodable when the records cannot be serialized.
func (p *Publisher) Publish(ctx context.Context, batch *domain.Batch) error {
	if batch.Empty() {
		return nil
	}

	tokenCtx, cancel := context.WithTimeout(ctx, p.settings.RequestTimeout)
	tok, err := p.creds.Token(tokenCtx)
	cancel()
	if err != nil {
		return err
	}

	data, err := encoder.Encode(batch.Records())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnencodable, err)
	}

	req := ports.PublishRequest{
		TopicPath: p.topic,
		AuthToken: tok.AccessToken,
		Body: ports.PublishBody{
			Messages: []ports.Message{{Data: data}},
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, p.settings.RequestTimeout)
	defer cancel()

	resp, err := p.transport.Publish(callCtx, req)
	if err != nil {
		perr := &domain.PublishError{Kind: domain.Unreachable, Topic: p.topic, Err: err}
		if isTimeout(err) {
			perr.Kind = domain.Timeout
		}
		p.logger.Error(eventFailed,
			ports.String("topic", p.topic),
			ports.String("kind", perr.Kind.String()),
			ports.Err(err),
		)
		return perr
	}

	out := classify.Classify(resp)
	if out.Success {
		var message any = out.Message
		if out.AckIDs != nil {
			message = out.AckIDs
		}
		p.logger.Info(eventPublished,
			ports.String("topic", p.topic),
			ports.Int("code", out.StatusCode),
			ports.Any("message", message),
		)
		return nil
	}

	p.logger.Error(eventFailed,
		ports.String("topic", p.topic),
		ports.Int("code", out.StatusCode),
		ports.String("message", out.Message),
	)
	perr := &domain.PublishError{
		Kind:       domain.RemoteRejected,
		Topic:      p.topic,
		StatusCode: out.StatusCode,
		Message:    out.Message,
	}
	if out.Err != nil {
		perr.Err = out.Err
	}
	return perr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
