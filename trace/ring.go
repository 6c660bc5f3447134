package trace

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshuapare/circalloc/alloc"
)

// Ring emits and drains trace records through a circular allocator. Many
// producers may Emit concurrently when the underlying allocator is a
// RingAllocator. A consumer either drains in-process with Drain, or - when
// the arena is shared across processes - receives the block references
// over the IPC channel and calls Read and Release itself.
type Ring struct {
	arena []byte
	mem   alloc.Allocator

	seq uint64
	pid uint32

	// pending holds emitted-but-unreleased refs in emission order, for
	// Drain. Guarded by mu; the allocator itself stays lock-free.
	mu      sync.Mutex
	pending []alloc.Ref
}

// New creates a Ring over an arena and an allocator serving it. The arena
// slice must be the same region the allocator was constructed with.
func New(arena []byte, mem alloc.Allocator) *Ring {
	return &Ring{arena: arena, mem: mem, pid: uint32(os.Getpid())}
}

// Emit encodes rec into a freshly allocated block and returns its
// reference. The sequence number is always assigned here; Time and PID are
// filled in when the caller left them zero. When the pool is exhausted,
// Emit fails with ErrRingFull wrapping the allocator's error - the
// producer decides whether to drop or retry.
func (r *Ring) Emit(rec Record) (alloc.Ref, error) {
	rec.Seq = atomic.AddUint64(&r.seq, 1)
	if rec.Time == 0 {
		rec.Time = time.Now().UnixNano()
	}
	if rec.PID == 0 {
		rec.PID = r.pid
	}

	text, err := encodeText(rec.Text)
	if err != nil {
		return 0, err
	}
	ref, payload, err := r.mem.Alloc(uint32(headerSize + len(text)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRingFull, err)
	}
	putRecord(payload, rec, text)

	r.mu.Lock()
	r.pending = append(r.pending, ref)
	r.mu.Unlock()
	return ref, nil
}

// Read decodes the record stored at ref. The block stays allocated; call
// Release once the record has been consumed.
func (r *Ring) Read(ref alloc.Ref) (Record, error) {
	if uint64(ref)+headerSize > uint64(len(r.arena)) {
		return Record{}, ErrTruncated
	}
	return Decode(r.arena[ref:])
}

// Release frees the block holding a consumed record.
func (r *Ring) Release(ref alloc.Ref) error {
	r.mu.Lock()
	for i, p := range r.pending {
		if p == ref {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return r.mem.Free(ref)
}

// Drain decodes and releases outstanding records in emission order,
// calling fn for each. Draining stops when fn returns false or no records
// remain; the record already handed to fn is released either way.
func (r *Ring) Drain(fn func(Record) bool) error {
	for {
		r.mu.Lock()
		if len(r.pending) == 0 {
			r.mu.Unlock()
			return nil
		}
		ref := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()

		rec, err := r.Read(ref)
		if err != nil {
			return err
		}
		if err := r.mem.Free(ref); err != nil {
			return err
		}
		if !fn(rec) {
			return nil
		}
	}
}
