package alloc

import "sync"

// CheckedAllocator wraps another Allocator and validates every Free call
// against the set of outstanding references, so tests catch double frees,
// foreign refs, and leaks before they become undefined behaviour in the
// wrapped allocator.
//
// Diagnostic use only: it serialises on a mutex, so it must not stand in
// for RingAllocator where lock-freedom matters.
type CheckedAllocator struct {
	mem Allocator

	mu    sync.Mutex
	live  map[Ref]uint32
	bytes int64
}

// NewChecked wraps mem in a CheckedAllocator.
func NewChecked(mem Allocator) *CheckedAllocator {
	return &CheckedAllocator{mem: mem, live: make(map[Ref]uint32)}
}

// Alloc forwards to the wrapped allocator and records the returned ref.
func (c *CheckedAllocator) Alloc(size uint32) (Ref, []byte, error) {
	ref, payload, err := c.mem.Alloc(size)
	if err != nil {
		return 0, nil, err
	}
	c.mu.Lock()
	c.live[ref] = uint32(len(payload))
	c.bytes += int64(len(payload))
	c.mu.Unlock()
	return ref, payload, nil
}

// Free rejects refs that are not currently outstanding, then forwards.
func (c *CheckedAllocator) Free(ref Ref) error {
	c.mu.Lock()
	size, ok := c.live[ref]
	if ok {
		delete(c.live, ref)
		c.bytes -= int64(size)
	}
	c.mu.Unlock()
	if !ok {
		return ErrBadRef
	}
	return c.mem.Free(ref)
}

// CurrentAllocs returns the number of outstanding allocations.
func (c *CheckedAllocator) CurrentAllocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// CurrentBytes returns the total payload bytes outstanding.
func (c *CheckedAllocator) CurrentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// TestingT is the subset of testing.TB needed by AssertAllFreed.
type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertAllFreed reports every outstanding allocation as a test failure.
func (c *CheckedAllocator) AssertAllFreed(t TestingT) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for ref, size := range c.live {
		t.Errorf("alloc: leaked block ref=%#x size=%d", ref, size)
	}
}

// Compile-time interface check
var _ Allocator = (*CheckedAllocator)(nil)
