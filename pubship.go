package pubship

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	httpAdapter "github.com/bft-labs/pubship/internal/adapters/http"
	"github.com/bft-labs/pubship/internal/adapters/keyfile"
	"github.com/bft-labs/pubship/internal/adapters/oauth"
	"github.com/bft-labs/pubship/internal/app"
	"github.com/bft-labs/pubship/internal/domain"
	"github.com/bft-labs/pubship/internal/keywatch"
	"github.com/bft-labs/pubship/internal/ports"
	"github.com/bft-labs/pubship/internal/publisher"
)

// Version is sent in the User-Agent of publish requests.
const Version = "0.1.0"

// shutdownMargin is added to the final flush timeout when Stop waits for
// the shipping loop to return.
const shutdownMargin = 5 * time.Second

// Settings configures the Pub/Sub destination and credentials.
type Settings = domain.Settings

// Record is one structured log entry.
type Record = domain.Record

// RecordSource yields records for the shipping loop.
type RecordSource = ports.RecordSource

// Error types and sentinels re-exported for errors.Is / errors.As.
type (
	ConfigError         = domain.ConfigError
	AuthError           = domain.AuthError
	PublishError        = domain.PublishError
	ClassificationError = domain.ClassificationError
)

var (
	ErrInvalidConfig  = domain.ErrInvalidConfig
	ErrAlreadyRunning = domain.ErrAlreadyRunning
	ErrNotRunning     = domain.ErrNotRunning
	ErrUnencodable    = domain.ErrUnencodable
)

// IsRetryable reports whether a failed publish may succeed if retried.
func IsRetryable(err error) bool {
	return domain.IsRetryable(err)
}

// DefaultSettings returns Settings with every optional field defaulted.
func DefaultSettings() Settings {
	var s Settings
	s.SetDefaults()
	return s
}

// Shipper publishes records from a source to one topic.
// Use New() to create an instance, then Start() to begin shipping.
type Shipper struct {
	settings  Settings
	opts      options
	lifecycle *app.Lifecycle
	publisher *publisher.Publisher
	source    ports.RecordSource
	emitter   *eventEmitterWrapper
	logger    ports.Logger

	shutdownWait time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	watcher *keywatch.Watcher
	done    chan struct{}
	err     error
}

// New creates a Shipper in StateStopped. It validates settings and performs
// no network activity; invalid settings return an error matching
// ErrInvalidConfig. source may be nil when only Publish is used.
func New(settings Settings, source RecordSource, opts ...Option) (*Shipper, error) {
	settings.SetDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: ports.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: settings.RequestTimeout}
	}
	if o.keys == nil {
		o.keys = keyfile.NewLoader()
	}
	if o.tokens == nil {
		o.tokens = oauth.NewTokenFetcher(o.httpClient)
	}

	transport := httpAdapter.NewPublishTransport(o.httpClient, settings.Endpoint, Version)
	pub, err := publisher.New(settings, o.keys, o.tokens, transport, publisher.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	flushTimeout := o.agent.ShutdownTimeout
	if flushTimeout <= 0 {
		flushTimeout = app.ShutdownTimeout
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	return &Shipper{
		settings:     settings,
		opts:         o,
		lifecycle:    app.NewLifecycle(o.logger, emitter),
		publisher:    pub,
		source:       source,
		emitter:      emitter,
		logger:       o.logger,
		shutdownWait: flushTimeout + shutdownMargin,
	}, nil
}

// Topic returns the full topic resource name.
func (s *Shipper) Topic() string {
	return s.publisher.Topic()
}

// Publish sends records synchronously as one message. It does not retry.
func (s *Shipper) Publish(ctx context.Context, records ...Record) error {
	return s.publisher.Publish(ctx, domain.BatchOf(records...))
}

// Start begins shipping in the background and returns immediately.
// The provided context bounds the lifetime of the shipping loop.
func (s *Shipper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return errors.New("pubship: no record source")
	}
	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.lifecycle.SetCancel(cancel)
	s.done = make(chan struct{})
	s.err = nil

	if s.opts.watchKey {
		w := keywatch.New(s.settings.PrivateKeyPath, s.publisher.Credentials(), s.logger, s.opts.watchDelay)
		if err := w.Start(runCtx); err != nil {
			s.logger.Warn("key watch disabled", ports.Err(err))
		} else {
			s.watcher = w
		}
	}

	agent := app.NewAgent(s.opts.agent, s.source, s.publisher, s.logger, s.emitter)
	done := s.done
	s.lifecycle.Go(func() {
		defer close(done)
		defer cancel()

		if err := s.lifecycle.TransitionTo(app.StateRunning, "agent starting"); err != nil {
			s.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := agent.Run(runCtx)
		s.setErr(err)
		switch {
		case err == nil:
			_ = s.lifecycle.TransitionTo(app.StateStopped, "end of input")
		case runCtx.Err() != nil:
			_ = s.lifecycle.TransitionTo(app.StateStopped, "context done")
		default:
			s.logger.Error("agent error", ports.Err(err))
			_ = s.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// Stop cancels the shipping loop and waits for the final flush, which is
// bounded by AgentConfig.ShutdownTimeout. Returns nil on graceful shutdown,
// ErrShutdownTimeout if the loop outlives that bound.
func (s *Shipper) Stop() error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lifecycle.Cancel()
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(s.shutdownWait)
	if watcher != nil {
		watcher.Wait()
	}

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Shipper) Status() State {
	return s.lifecycle.State()
}

// Done is closed when the shipping loop started by the last Start returns.
// It is nil before the first Start.
func (s *Shipper) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the error the shipping loop ended with, if any.
func (s *Shipper) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Shipper) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
