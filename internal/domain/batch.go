package domain

// Record is a single structured log entry. Values must be JSON-representable.
// A record must not be mutated after it has been added to a batch.
type Record map[string]any

// Batch is an ordered aggregate of records ready to be published together.
type Batch struct {
	records []Record

	// TotalBytes is the sum of the source sizes of all added records
	TotalBytes int
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{records: make([]Record, 0)}
}

// BatchOf creates a batch holding the given records in order.
func BatchOf(records ...Record) *Batch {
	b := NewBatch()
	for _, r := range records {
		b.Add(r, 0)
	}
	return b
}

// Add appends a record. size is the number of source bytes the record
// occupied and only feeds TotalBytes.
func (b *Batch) Add(record Record, size int) {
	b.records = append(b.records, record)
	b.TotalBytes += size
}

// Records returns the records in insertion order.
// The returned slice is owned by the batch.
func (b *Batch) Records() []Record {
	return b.records
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return b.Len() == 0
}

// Reset clears the batch for reuse.
func (b *Batch) Reset() {
	clear(b.records)
	b.records = b.records[:0]
	b.TotalBytes = 0
}
