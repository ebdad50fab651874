package ports

import (
	"context"
	"io"

	"github.com/bft-labs/pubship/internal/domain"
)

// RecordSource produces records for the shipping loop.
type RecordSource interface {
	// Next returns the next record and the number of source bytes it used.
	// Returns io.EOF when the input is exhausted.
	Next(ctx context.Context) (domain.Record, int, error)

	// Close releases all resources held by the source.
	Close() error
}

// ErrEndOfRecords indicates that the source has no more records.
var ErrEndOfRecords = io.EOF
