package fs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bft-labs/pubship/internal/domain"
	"github.com/bft-labs/pubship/internal/ports"
)

// StdinPath selects standard input as the record source.
const StdinPath = "-"

// maxLineBytes bounds a single input line.
const maxLineBytes = 8 << 20

// RecordReader implements ports.RecordSource over newline-delimited JSON.
// Each non-blank line must hold one JSON object. Lines that fail to decode
// are logged and skipped.
type RecordReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	logger  ports.Logger
	line    int
}

// NewRecordReader reads records from r.
func NewRecordReader(r io.Reader, logger ports.Logger) *RecordReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &RecordReader{scanner: scanner, logger: logger}
}

// OpenRecordReader opens path, or standard input for "-".
func OpenRecordReader(path string, logger ports.Logger) (*RecordReader, error) {
	if path == "" || path == StdinPath {
		return NewRecordReader(os.Stdin, logger), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	rr := NewRecordReader(f, logger)
	rr.closer = f
	return rr, nil
}

// Next returns the next record and the number of bytes of its line,
// including the newline. Returns ports.ErrEndOfRecords at end of input.
func (r *RecordReader) Next(ctx context.Context) (domain.Record, int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, 0, fmt.Errorf("read input: %w", err)
			}
			return nil, 0, ports.ErrEndOfRecords
		}
		r.line++

		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec domain.Record
		if err := json.Unmarshal(line, &rec); err != nil || rec == nil {
			r.logger.Warn("skipping malformed record",
				ports.Int("line", r.line),
				ports.Err(err),
			)
			continue
		}
		return rec, len(r.scanner.Bytes()) + 1, nil
	}
}

// Close releases the underlying file, if any.
func (r *RecordReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
