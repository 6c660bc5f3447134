package alloc

// Ref is a block reference: the byte offset of an allocation's payload
// within the arena. The arena base is 16-byte aligned, so a Ref is always a
// multiple of 16. Refs are plain integers and may be handed across threads
// or processes sharing the arena.
type Ref = uint32

// Allocator defines the interface for circular arena allocation.
//
// Implementations:
//   - RingAllocator: lock-free, safe for concurrent use
//   - SerialAllocator: in-band headers, single owner
//   - CheckedAllocator: misuse-detecting wrapper for tests
type Allocator interface {
	// Alloc reserves a block with at least size usable bytes.
	// Returns the block reference, a slice over the payload, and any error.
	// The payload slice is valid until the block is freed.
	Alloc(size uint32) (Ref, []byte, error)

	// Free releases a previously allocated block. Space is reclaimed once
	// every older block has also been freed.
	Free(ref Ref) error
}
