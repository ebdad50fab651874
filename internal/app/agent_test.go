package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/pubship/internal/domain"
	"github.com/bft-labs/pubship/internal/ports"
)

// sliceSource yields the given records, then either EOF or blocks until
// the context is done when hold is set.
type sliceSource struct {
	records []domain.Record
	hold    bool
	err     error
	closed  bool
}

func (s *sliceSource) Next(ctx context.Context) (domain.Record, int, error) {
	if len(s.records) > 0 {
		rec := s.records[0]
		s.records = s.records[1:]
		return rec, 10, nil
	}
	if s.err != nil {
		return nil, 0, s.err
	}
	if s.hold {
		<-ctx.Done()
		return nil, 0, ctx.Err()
	}
	return nil, 0, io.EOF
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// scriptedPublisher fails with the queued errors, then succeeds.
type scriptedPublisher struct {
	mu      sync.Mutex
	errs    []error
	batches [][]domain.Record
	calls   int
}

func (p *scriptedPublisher) Publish(ctx context.Context, batch *domain.Batch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return err
	}
	p.batches = append(p.batches, append([]domain.Record{}, batch.Records()...))
	return nil
}

func (p *scriptedPublisher) Batches() [][]domain.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]domain.Record{}, p.batches...)
}

type recordingEmitter struct {
	mu        sync.Mutex
	successes int
	failures  []bool
}

func (e *recordingEmitter) OnPublishSuccess(recordCount, bytes int, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.successes++
}

func (e *recordingEmitter) OnPublishError(err error, recordCount int, retryable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, retryable)
}

func records(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{"n": i}
	}
	return out
}

func fastConfig() AgentConfig {
	return AgentConfig{
		FlushInterval: time.Hour,
		RetryInitial:  time.Millisecond,
		RetryMax:      2 * time.Millisecond,
	}
}

func TestAgent_FlushesAtEndOfInput(t *testing.T) {
	src := &sliceSource{records: records(3)}
	pub := &scriptedPublisher{}

	err := NewAgent(fastConfig(), src, pub, mockLogger{}, nil).Run(context.Background())
	require.NoError(t, err)

	batches := pub.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, records(3), batches[0])
	assert.True(t, src.closed)
}

func TestAgent_RecordLimitSplitsBatches(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxBatchRecords = 2
	pub := &scriptedPublisher{}

	err := NewAgent(cfg, &sliceSource{records: records(5)}, pub, mockLogger{}, nil).Run(context.Background())
	require.NoError(t, err)

	batches := pub.Batches()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)
}

func TestAgent_ByteLimitFlushesBeforeOverflow(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxBatchBytes = 25 // each record is 10 bytes
	pub := &scriptedPublisher{}

	err := NewAgent(cfg, &sliceSource{records: records(5)}, pub, mockLogger{}, nil).Run(context.Background())
	require.NoError(t, err)

	batches := pub.Batches()
	require.Len(t, batches, 3)
	assert.Equal(t, records(5)[:2], batches[0])
	assert.Equal(t, records(5)[2:4], batches[1])
	assert.Equal(t, records(5)[4:], batches[2])
}

func TestAgent_RetriesRetryableErrorsWithSameBatch(t *testing.T) {
	pub := &scriptedPublisher{errs: []error{
		&domain.PublishError{Kind: domain.RemoteRejected, StatusCode: 503, Message: "unavailable"},
		&domain.AuthError{Kind: domain.TokenFetchFailure, Err: errors.New("timeout")},
	}}
	emitter := &recordingEmitter{}

	err := NewAgent(fastConfig(), &sliceSource{records: records(2)}, pub, mockLogger{}, emitter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, pub.calls)
	batches := pub.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, records(2), batches[0])
	assert.Equal(t, 1, emitter.successes)
	assert.Equal(t, []bool{true, true}, emitter.failures)
}

func TestAgent_StopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("unexpected")
	pub := &scriptedPublisher{errs: []error{fatal}}

	err := NewAgent(fastConfig(), &sliceSource{records: records(1)}, pub, mockLogger{}, nil).Run(context.Background())

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, pub.calls)
}

func TestAgent_DropsUnencodableBatch(t *testing.T) {
	pub := &scriptedPublisher{errs: []error{fmt.Errorf("%w: json: unsupported value: NaN", domain.ErrUnencodable)}}

	err := NewAgent(fastConfig(), &sliceSource{records: records(1)}, pub, mockLogger{}, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
	assert.Empty(t, pub.Batches())
}

func TestAgent_MaxRetriesGivesUp(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 2
	rejected := &domain.PublishError{Kind: domain.RemoteRejected, StatusCode: 500}
	pub := &scriptedPublisher{errs: []error{rejected, rejected, rejected, rejected}}

	err := NewAgent(cfg, &sliceSource{records: records(1)}, pub, mockLogger{}, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, pub.calls)
	assert.Empty(t, pub.Batches())
}

func TestAgent_IntervalFlush(t *testing.T) {
	cfg := fastConfig()
	cfg.FlushInterval = 10 * time.Millisecond
	pub := &scriptedPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- NewAgent(cfg, &sliceSource{records: records(2), hold: true}, pub, mockLogger{}, nil).Run(ctx)
	}()

	require.Eventually(t, func() bool { return len(pub.Batches()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, records(2), pub.Batches()[0])
}

func TestAgent_FlushesPendingOnCancel(t *testing.T) {
	pub := &scriptedPublisher{}
	ctx, cancel := context.WithCancel(context.Background())

	agent := NewAgent(fastConfig(), &sliceSource{records: records(3), hold: true}, pub, mockLogger{}, nil)
	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	var got []domain.Record
	for _, b := range pub.Batches() {
		got = append(got, b...)
	}
	assert.Equal(t, records(3), got)
}

func TestAgent_ReadErrorIsReturned(t *testing.T) {
	readErr := errors.New("read input: disk on fire")
	pub := &scriptedPublisher{}

	err := NewAgent(fastConfig(), &sliceSource{records: records(1), err: readErr}, pub, mockLogger{}, nil).Run(context.Background())

	assert.ErrorIs(t, err, readErr)
}

func TestAgent_WrappedEndOfRecordsEndsCleanly(t *testing.T) {
	src := &sliceSource{records: records(2), err: fmt.Errorf("tail: %w", ports.ErrEndOfRecords)}
	pub := &scriptedPublisher{}

	err := NewAgent(fastConfig(), src, pub, mockLogger{}, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.Batches(), 1)
	assert.Equal(t, records(2), pub.Batches()[0])
}
