package app

import (
	"context"
	"errors"
	"time"

	"github.com/bft-labs/pubship/internal/domain"
	"github.com/bft-labs/pubship/internal/ports"
)

// Defaults mirroring the memory buffer of the fluentd output plugin.
const (
	DefaultFlushInterval = time.Second
	DefaultMaxBatchBytes = 7 << 20
	DefaultQueueSize     = 1024
)

// AgentConfig contains configuration for the shipping loop.
type AgentConfig struct {
	FlushInterval   time.Duration
	MaxBatchBytes   int
	MaxBatchRecords int

	RetryInitial time.Duration
	RetryMax     time.Duration

	// MaxRetries bounds publish attempts per batch after the first one.
	// Zero retries forever.
	MaxRetries int

	// ShutdownTimeout bounds the final flush after the context is canceled.
	ShutdownTimeout time.Duration
}

// Agent is the flush trigger: it reads records from a source, batches them,
// and hands full or due batches to the publisher, retrying on failure.
type Agent struct {
	config    AgentConfig
	source    ports.RecordSource
	publisher ports.Publisher
	logger    ports.Logger
	batcher   *Batcher
	emitter   PublishEventEmitter
	backoff   *backoff
}

// PublishEventEmitter is called on publish success or failure.
type PublishEventEmitter interface {
	OnPublishSuccess(recordCount, bytes int, duration time.Duration)
	OnPublishError(err error, recordCount int, retryable bool)
}

type sourcedRecord struct {
	record domain.Record
	size   int
}

// NewAgent creates a new agent with the given dependencies.
func NewAgent(
	config AgentConfig,
	source ports.RecordSource,
	publisher ports.Publisher,
	logger ports.Logger,
	emitter PublishEventEmitter,
) *Agent {
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = ShutdownTimeout
	}
	return &Agent{
		config:    config,
		source:    source,
		publisher: publisher,
		logger:    logger,
		batcher:   NewBatcher(config.MaxBatchBytes, config.MaxBatchRecords, config.FlushInterval),
		emitter:   emitter,
		backoff:   newBackoff(config.RetryInitial, config.RetryMax),
	}
}

// Run executes the main shipping loop until the source is exhausted, the
// context is canceled, or a non-retryable error occurs. Pending records are
// flushed before Run returns. Returns nil at end of input.
func (a *Agent) Run(ctx context.Context) error {
	defer a.source.Close()

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	records, readErr := a.startReader(readCtx)

	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return a.stop(ctx, records, ctx.Err())

		case item, ok := <-records:
			if !ok {
				return a.finish(ctx, records, <-readErr)
			}

			if err := a.add(ctx, item); err != nil {
				return a.stop(ctx, records, err)
			}

		case <-ticker.C:
			if a.batcher.ShouldFlush() {
				if err := a.flush(ctx); err != nil {
					return a.stop(ctx, records, err)
				}
			}
		}
	}
}

// add places a record into the batch, flushing before it when the record
// would overflow the byte limit and after it when a limit is reached.
func (a *Agent) add(ctx context.Context, item sourcedRecord) error {
	if a.batcher.WouldOverflow(item.size) {
		if err := a.flush(ctx); err != nil {
			return err
		}
	}
	if a.batcher.Add(item.record, item.size) {
		return a.flush(ctx)
	}
	return nil
}

// finish handles the end of input: pending records are flushed and the
// read error, if any, is returned.
func (a *Agent) finish(ctx context.Context, records <-chan sourcedRecord, readErr error) error {
	if ctx.Err() != nil {
		return a.stop(ctx, records, ctx.Err())
	}
	if readErr != nil {
		a.logger.Error("read error", ports.Err(readErr))
	}
	if err := a.flush(ctx); err != nil {
		return a.stop(ctx, records, err)
	}
	return readErr
}

// stop returns cause. When the loop ends because ctx was canceled, queued
// and pending records get a final flush first.
func (a *Agent) stop(ctx context.Context, records <-chan sourcedRecord, cause error) error {
	if ctx.Err() == nil {
		return cause
	}
	a.shutdownFlush(ctx, records)
	return ctx.Err()
}

// startReader pumps records from the source into a channel so the loop can
// react to the flush timer while the source blocks.
func (a *Agent) startReader(ctx context.Context) (<-chan sourcedRecord, <-chan error) {
	records := make(chan sourcedRecord, DefaultQueueSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(records)
		for {
			rec, size, err := a.source.Next(ctx)
			if err != nil {
				if errors.Is(err, ports.ErrEndOfRecords) {
					err = nil
				}
				errCh <- err
				return
			}
			select {
			case records <- sourcedRecord{record: rec, size: size}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return records, errCh
}

// flush publishes the current batch, retrying retryable failures with
// backoff. The batch is kept until it is published, so delivery is
// at-least-once.
func (a *Agent) flush(ctx context.Context) error {
	if !a.batcher.HasPending() {
		return nil
	}
	batch := a.batcher.Batch()

	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := a.publisher.Publish(ctx, batch)
		duration := time.Since(start)

		if err == nil {
			a.logger.Info("published batch",
				ports.Int("records", batch.Len()),
				ports.Int("bytes", batch.TotalBytes),
				ports.Duration("duration", duration),
			)
			if a.emitter != nil {
				a.emitter.OnPublishSuccess(batch.Len(), batch.TotalBytes, duration)
			}
			a.batcher.Reset()
			a.backoff.Reset()
			return nil
		}

		retryable := domain.IsRetryable(err)
		if a.emitter != nil {
			a.emitter.OnPublishError(err, batch.Len(), retryable)
		}

		if errors.Is(err, domain.ErrUnencodable) {
			a.logger.Error("dropping batch that cannot be encoded",
				ports.Err(err),
				ports.Int("records", batch.Len()),
			)
			a.batcher.Reset()
			return nil
		}

		if !retryable {
			return err
		}

		if a.config.MaxRetries > 0 && attempt >= a.config.MaxRetries {
			a.logger.Error("giving up on batch",
				ports.Err(err),
				ports.Int("records", batch.Len()),
				ports.Int("attempts", attempt+1),
			)
			a.batcher.Reset()
			a.backoff.Reset()
			return nil
		}

		a.logger.Warn("publish failed, retrying",
			ports.Err(err),
			ports.Int("records", batch.Len()),
			ports.Duration("backoff", a.backoff.Current()),
		)
		if err := a.backoff.Wait(ctx); err != nil {
			return err
		}
	}
}

// shutdownFlush drains records already queued by the reader and makes a
// last attempt to publish them on a context detached from the canceled
// parent.
func (a *Agent) shutdownFlush(parent context.Context, records <-chan sourcedRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), a.config.ShutdownTimeout)
	defer cancel()

	for drained := false; !drained; {
		select {
		case item, ok := <-records:
			if !ok {
				drained = true
				break
			}
			if err := a.add(ctx, item); err != nil {
				a.logFinalFlushError(err)
				return
			}
		default:
			drained = true
		}
	}

	if err := a.flush(ctx); err != nil {
		a.logFinalFlushError(err)
	}
}

func (a *Agent) logFinalFlushError(err error) {
	a.logger.Error("final flush failed, records lost",
		ports.Err(err),
		ports.Int("records", a.batcher.Batch().Len()),
	)
}
