// Package encoder turns a batch of records into a single wire message.
package encoder

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/bft-labs/pubship/internal/domain"
)

// Encode serializes the records as one JSON array and base64-encodes it.
// Map keys are emitted in sorted order, so equal batches encode identically.
// HTML characters are written as-is so the payload tracks the input size.
func Encode(records []domain.Record) (string, error) {
	if records == nil {
		records = []domain.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("marshal records: %w", err)
	}
	raw := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode.
func Decode(data string) ([]domain.Record, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	var records []domain.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	return records, nil
}
