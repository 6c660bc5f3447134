package trace

import "errors"

var (
	// ErrTruncated indicates a block too short for the record it claims to hold.
	ErrTruncated = errors.New("trace: truncated record")

	// ErrChecksum indicates a record whose text bytes fail checksum verification.
	ErrChecksum = errors.New("trace: record checksum mismatch")

	// ErrTextSize indicates text that is over MaxTextBytes or not a whole
	// number of UTF-16 code units.
	ErrTextSize = errors.New("trace: record text size out of range")

	// ErrRingFull indicates the allocator backing the ring could not hold
	// a new record; it wraps the allocator's exhaustion error.
	ErrRingFull = errors.New("trace: ring full")
)
