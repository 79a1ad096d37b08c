package telemetry

// Buffer is an append-only sequence of WindowRecord with a doubling-capacity
// growth policy: it never shrinks and never drops a record unless the
// underlying allocation itself fails, which Go surfaces as an out-of-memory
// panic rather than a recoverable error — consistent with §4.5 treating
// that condition as fatal to the run.
type Buffer struct {
	records []WindowRecord
}

// NewBuffer returns an empty buffer with room for initialCapacity records
// before its first reallocation.
func NewBuffer(initialCapacity int) *Buffer {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Buffer{records: make([]WindowRecord, 0, initialCapacity)}
}

// Append adds r to the end of the buffer, doubling capacity if needed.
func (b *Buffer) Append(r WindowRecord) {
	if len(b.records) == cap(b.records) {
		grown := make([]WindowRecord, len(b.records), cap(b.records)*2)
		copy(grown, b.records)
		b.records = grown
	}
	b.records = append(b.records, r)
}

// Len returns the number of records currently held.
func (b *Buffer) Len() int { return len(b.records) }

// All returns the full record sequence in dispatch order. The returned
// slice aliases the buffer's storage and must not be mutated by the
// caller.
func (b *Buffer) All() []WindowRecord { return b.records }

// Range returns the records in [start, end), clamped to the buffer's
// bounds. Used to emit per-plugin segments when multiple plugins share a
// buffer across sequential runs.
func (b *Buffer) Range(start, end int) []WindowRecord {
	if start < 0 {
		start = 0
	}
	if end > len(b.records) {
		end = len(b.records)
	}
	if start >= end {
		return nil
	}
	return b.records[start:end]
}
