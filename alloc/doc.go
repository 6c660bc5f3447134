// Package alloc provides bounded, deterministic memory allocation from a
// caller-supplied circular arena.
//
// # Overview
//
// This package implements malloc/free-like allocation for latency-sensitive
// producers (the motivating workload is inter-process-communication
// tracing) without operating-system calls, locks, or context switches.
// Blocks are carved from a fixed byte arena in insertion order; frees may
// arrive out of order, but arena space is reclaimed strictly from the tail,
// so the pool never fragments indefinitely as long as old blocks eventually
// get freed. Freed middle blocks stay unavailable until every older block
// is also freed - a deliberate trade that keeps Alloc O(1) and Free O(k) in
// the number of consecutively free blocks uncovered at the tail.
//
// # Allocator Interface
//
// The core abstraction is the Allocator interface:
//
//   - Alloc(size): Reserve a 16-byte aligned block with at least size
//     usable bytes; returns its Ref and a payload slice
//   - Free(ref): Release a previously returned Ref
//
// # Implementations
//
// RingAllocator: lock-free allocator for concurrent producers
//
//   - All synchronisation by compare-and-swap on aligned 8-byte words
//   - Two circular structures: the byte arena and a fixed list of
//     8-byte descriptors, one per live allocation
//   - Wrap-around handled with owner-less gap blocks
//   - Lock-free progress: at least one operation completes in a bounded
//     number of steps; no operation ever blocks
//
// SerialAllocator: single-owner allocator with in-band headers
//
//   - Same circular geometry, state kept in the block headers themselves
//   - No descriptor list and no atomics; callers must serialise access
//
// CheckedAllocator: wrapper that validates Free calls against the set of
// outstanding references and reports leaks in tests. Diagnostic use only;
// it serialises on a mutex.
//
// # Usage Example
//
//	buf, _ := arena.New(1 << 20)
//	a, err := alloc.NewRing(buf, arena.Slots(4096))
//	if err != nil {
//	    return err
//	}
//
//	ref, payload, err := a.Alloc(256)
//	if err != nil {
//	    return err
//	}
//
//	// Write the record into payload...
//
//	// Later, from any goroutine:
//	err = a.Free(ref)
//
// # References
//
// A Ref is the byte offset of a payload within the arena. The arena base is
// 16-byte aligned, so every Ref is a multiple of 16. Refs travel across
// threads and processes where pointers cannot.
//
// # Reclamation
//
// Free flags the block's descriptor, then walks the descriptor list from
// its tail, retiring every consecutively released entry and advancing both
// queues. Whichever caller's walk uncovers a released tail entry performs
// the retirement; concurrent walkers hand off rather than contend.
//
// # Thread Safety
//
// RingAllocator is safe for concurrent Alloc and Free from any number of
// goroutines. SerialAllocator is not; callers must synchronise externally.
//
// # Related Packages
//
//   - github.com/joshuapare/circalloc/arena: arena and descriptor construction
//   - github.com/joshuapare/circalloc/trace: trace-record ring built on this package
package alloc
