package alloc

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/circalloc/arena"
	"github.com/joshuapare/circalloc/internal/layout"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRing creates a RingAllocator over a fresh aligned arena.
func newTestRing(t testing.TB, size, slots int) *RingAllocator {
	t.Helper()
	buf, err := arena.New(size)
	require.NoError(t, err)
	a, err := NewRing(buf, arena.Slots(slots))
	require.NoError(t, err)
	return a
}

// newTestSerial creates a SerialAllocator over a fresh aligned arena.
func newTestSerial(t testing.TB, size int) *SerialAllocator {
	t.Helper()
	buf, err := arena.New(size)
	require.NoError(t, err)
	s, err := NewSerial(buf)
	require.NoError(t, err)
	return s
}

// bufState returns the buffer queue's tail position and length in bytes.
func bufState(a *RingAllocator) (tail, length uint32) {
	bq := atomic.LoadUint64(&a.bufq)
	return layout.QueueTail(bq) * layout.Alignment, layout.QueueLength(bq) * layout.Alignment
}

// listState returns the list queue's tail position and length in slots.
func listState(a *RingAllocator) (tail, length uint32) {
	lq := atomic.LoadUint64(&a.listq)
	return layout.QueueTail(lq), layout.QueueLength(lq)
}

// preloadBufTail parks an empty buffer queue at the given byte position, so
// tests can start near the arena end without allocating filler blocks.
func preloadBufTail(t testing.TB, a *RingAllocator, tailBytes uint32) {
	t.Helper()
	require.Zero(t, tailBytes%layout.Alignment)
	atomic.StoreUint64(&a.bufq, layout.PackQueue(tailBytes/layout.Alignment, 0))
}

// checkInvariants validates the allocator's quiescent invariants: every
// in-queue descriptor is published, descriptors follow buffer order, each
// block header points back at its slot, and the buffer length is exactly
// the blocks plus wrap gaps accounted through the list.
func checkInvariants(t testing.TB, a *RingAllocator) {
	t.Helper()

	lt, ll := listState(a)
	bq := atomic.LoadUint64(&a.bufq)
	bt, bl := layout.QueueTail(bq), layout.QueueLength(bq)

	pos := bt
	var used uint32
	for i := uint32(0); i < ll; i++ {
		idx := (lt + i) % a.slotCount
		e := atomic.LoadUint64(&a.slots[idx])
		require.NotZero(t, e, "slot %d in-queue but reserved during quiescence", idx)

		n := layout.EntryLength(e)
		if n == 0 {
			// Ghost: a list slot with no arena bytes.
			require.True(t, layout.EntryFree(e))
			continue
		}
		off := layout.EntryOffset(e)
		gap := (off + a.words - pos) % a.words
		used += gap + n
		pos = (off + n) % a.words

		offB := int(off) * layout.Alignment
		require.Equal(t, int32(idx), layout.BlockOwner(a.arena, offB),
			"block %#x does not point back at slot %d", offB, idx)
		require.Equal(t, n*layout.Alignment, layout.BlockLength(a.arena, offB),
			"block %#x header length disagrees with descriptor", offB)
		require.LessOrEqual(t, used, bl, "descriptors overrun the buffer queue")
	}
	require.Equal(t, bl, used, "buffer length not fully accounted by blocks and gaps")
	if bl == 0 {
		require.Equal(t, (bt+bl)%a.words, bt, "empty buffer must have head == tail")
	}
}

// requireEmpty asserts both queues have drained back to length zero.
func requireEmpty(t testing.TB, a *RingAllocator) {
	t.Helper()
	_, bl := bufState(a)
	_, ll := listState(a)
	require.Zero(t, bl, "buffer queue should be empty")
	require.Zero(t, ll, "list queue should be empty")
}
