package app

import (
	"time"

	"github.com/bft-labs/pubship/internal/domain"
)

// Batcher accumulates records between flushes and decides when a flush is
// due: when the byte or record limit is reached, or when the flush
// interval has elapsed since the last flush.
type Batcher struct {
	batch           *domain.Batch
	maxBatchBytes   int
	maxBatchRecords int
	flushInterval   time.Duration
	lastFlush       time.Time
	now             func() time.Time
}

// NewBatcher creates a new batcher. Zero limits are unbounded.
func NewBatcher(maxBatchBytes, maxBatchRecords int, flushInterval time.Duration) *Batcher {
	return &Batcher{
		batch:           domain.NewBatch(),
		maxBatchBytes:   maxBatchBytes,
		maxBatchRecords: maxBatchRecords,
		flushInterval:   flushInterval,
		lastFlush:       time.Now(),
		now:             time.Now,
	}
}

// WouldOverflow reports whether adding a record of the given size would
// push a non-empty batch past the byte limit. A record larger than the
// limit is accepted alone into an empty batch.
func (b *Batcher) WouldOverflow(size int) bool {
	if b.batch.Empty() || b.maxBatchBytes <= 0 {
		return false
	}
	return b.batch.TotalBytes+size > b.maxBatchBytes
}

// Add appends a record. Returns true if the batch should be flushed now
// (size trigger).
func (b *Batcher) Add(record domain.Record, size int) bool {
	b.batch.Add(record, size)
	return b.Full()
}

// Full reports whether a size limit has been reached.
func (b *Batcher) Full() bool {
	if b.maxBatchBytes > 0 && b.batch.TotalBytes >= b.maxBatchBytes {
		return true
	}
	return b.maxBatchRecords > 0 && b.batch.Len() >= b.maxBatchRecords
}

// ShouldFlush returns true if the batch should be flushed based on the
// time trigger.
func (b *Batcher) ShouldFlush() bool {
	if !b.HasPending() {
		return false
	}
	return b.now().Sub(b.lastFlush) >= b.flushInterval
}

// Batch returns the current batch.
func (b *Batcher) Batch() *domain.Batch {
	return b.batch
}

// Reset clears the batch and updates the last flush time.
func (b *Batcher) Reset() {
	b.batch.Reset()
	b.lastFlush = b.now()
}

// HasPending returns true if there are records waiting to be published.
func (b *Batcher) HasPending() bool {
	return !b.batch.Empty()
}
