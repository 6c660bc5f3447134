package alloc

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/joshuapare/circalloc/internal/layout"
)

// Debug flag - set to true to enable verbose logging (compile-time toggle).
const debugAlloc = false

// Runtime debug flag for allocation logging - controlled by CIRCALLOC_LOG_ALLOC env var.
var logAlloc = os.Getenv("CIRCALLOC_LOG_ALLOC") != ""

// RingAllocator is a bounded, lock-free circular allocator.
//
// Two fixed circular structures cooperate:
//
//   - the buffer: the byte arena, holding variable-length blocks with
//     inline headers, served head-to-tail
//   - the list: an array of 8-byte descriptors, one per live allocation,
//     forming a FIFO free queue in the same order as the buffer
//
// Each queue is described by a single {tail, length} word updated by
// compare-and-swap. Allocation reserves a list slot, then a buffer region
// (inserting an owner-less gap block when the region must wrap), writes the
// block header, and publishes the descriptor with a release-ordered CAS.
// Free flags the descriptor, then retires consecutively released
// descriptors from the list tail, advancing both queues.
//
// Progress is lock-free: every CAS retry is caused by another operation
// completing. There are no locks, kernel calls, or unbounded spins.
type RingAllocator struct {
	arena []byte
	slots []uint64

	// words is the arena capacity in 16-byte units; slotCount is the
	// number of list descriptors. Both fixed at construction.
	words     uint32
	slotCount uint32

	// bufq and listq are the packed {tail, length} queue descriptors,
	// mutated only through sync/atomic.
	bufq  uint64
	listq uint64

	stats ringStats
}

// ringStats holds internal counters, updated atomically.
type ringStats struct {
	allocCalls    uint64 // Total Alloc() calls
	allocFailures uint64 // Allocs that returned an error
	ghostDeposits uint64 // Failed allocs that left a ghost descriptor
	rescinds      uint64 // Failed allocs rescinded without a ghost
	gapBlocks     uint64 // Wrap gaps inserted
	freeCalls     uint64 // Total Free() calls
	retiredBlocks uint64 // Real blocks retired by the reclamation walk
	retiredGhosts uint64 // Ghost descriptors retired
	casRetries    uint64 // Queue CAS attempts that lost to a concurrent update
}

// Stats is a point-in-time snapshot of allocator counters.
type Stats struct {
	AllocCalls    uint64
	AllocFailures uint64
	GhostDeposits uint64
	Rescinds      uint64
	GapBlocks     uint64
	FreeCalls     uint64
	RetiredBlocks uint64
	RetiredGhosts uint64
	CASRetries    uint64
}

// NewRing creates a RingAllocator over the given arena and descriptor
// array. The arena must be a non-empty multiple of 16 bytes, at most
// 4 GiB; its base should be 16-byte aligned (see package arena) so that
// payload addresses are aligned as well as their Refs. The descriptor
// array bounds the number of simultaneously live allocations.
//
// The allocator takes ownership of both slices. Tearing them down while
// operations are in flight is the caller's responsibility to prevent.
func NewRing(arena []byte, slots []uint64) (*RingAllocator, error) {
	if len(arena) == 0 || len(arena)%layout.Alignment != 0 || uint64(len(arena)) > layout.MaxArenaBytes {
		return nil, ErrArenaSize
	}
	// Block headers carry the owning slot index as an int32, so the
	// descriptor count is bounded the same way.
	if len(slots) == 0 || int64(len(slots)) > int64(^uint32(0)>>1) {
		return nil, ErrNoDescriptors
	}

	// Descriptors double as the reserved-in-progress state when zero, so
	// the array must start out clear.
	clear(slots)

	return &RingAllocator{
		arena:     arena,
		slots:     slots,
		words:     uint32(uint64(len(arena)) / layout.Alignment),
		slotCount: uint32(len(slots)),
	}, nil
}

// Capacity returns the arena size in bytes.
func (a *RingAllocator) Capacity() int { return len(a.arena) }

// Alloc reserves a block with at least size usable bytes and returns its
// Ref and payload slice. It fails with ErrNoSlots when the descriptor list
// is full and ErrNoSpace when the arena cannot hold the block.
func (a *RingAllocator) Alloc(size uint32) (Ref, []byte, error) {
	atomic.AddUint64(&a.stats.allocCalls, 1)

	nbytes := layout.BlockSize(size)
	if size == 0 || nbytes > uint64(len(a.arena)) {
		atomic.AddUint64(&a.stats.allocFailures, 1)
		return 0, nil, ErrSizeRange
	}
	n := uint32(nbytes / layout.Alignment)

	// Step 1: reserve a list slot by bumping the queue head. The slot at
	// the head position is guaranteed zero: the tail never advances past
	// an unretired entry, and retirement rewrites entries to zero.
	var (
		slot     uint32
		reserved uint64
	)
	for {
		lq := atomic.LoadUint64(&a.listq)
		lt, ll := layout.QueueTail(lq), layout.QueueLength(lq)
		if ll == a.slotCount {
			atomic.AddUint64(&a.stats.allocFailures, 1)
			return 0, nil, ErrNoSlots
		}
		slot = (lt + ll) % a.slotCount
		reserved = layout.PackQueue(lt, ll+1)
		if atomic.CompareAndSwapUint64(&a.listq, lq, reserved) {
			break
		}
		atomic.AddUint64(&a.stats.casRetries, 1)
	}

	// Step 2: reserve a buffer region. Geometry is recomputed on every
	// CAS loss; a concurrent alloc or free may have moved either end.
	var off, gap uint32
	for {
		bq := atomic.LoadUint64(&a.bufq)
		bt, bl := layout.QueueTail(bq), layout.QueueLength(bq)

		head := bt + bl
		if head < a.words {
			// Head has not wrapped past the arena end. Take the
			// contiguous run at the end, or insert a gap block over
			// it and place the real block at offset zero.
			if end := a.words - head; n <= end {
				off, gap = head, 0
			} else {
				off, gap = 0, end
			}
		} else {
			// Head already wrapped; the free run ends at the tail.
			off, gap = head-a.words, 0
		}

		// Refuse any reservation that would fill the arena exactly:
		// tail == head must keep meaning empty.
		if bl+gap+n >= a.words {
			a.fail(slot, reserved)
			return 0, nil, ErrNoSpace
		}
		if atomic.CompareAndSwapUint64(&a.bufq, bq, layout.PackQueue(bt, bl+gap+n)) {
			break
		}
		atomic.AddUint64(&a.stats.casRetries, 1)
	}

	// Step 3: write the block headers. Ordinary stores - nothing can
	// observe them until the publish below releases them.
	offB := int(off) * layout.Alignment
	if gap != 0 {
		gapB := int(a.words-gap) * layout.Alignment
		layout.PutBlockHeader(a.arena, gapB, layout.GapOwner, gap*layout.Alignment)
		atomic.AddUint64(&a.stats.gapBlocks, 1)
	}
	layout.PutBlockHeader(a.arena, offB, int32(slot), uint32(nbytes))

	// Step 4: publish. No other thread may touch a reserved slot, so this
	// CAS cannot legitimately lose.
	if !atomic.CompareAndSwapUint64(&a.slots[slot], 0, layout.PackEntry(false, off, n)) {
		panic("alloc: reserved descriptor clobbered; allocator state is corrupt")
	}

	ref := Ref(uint32(offB) + layout.HeaderSize)
	end := offB + int(nbytes)
	a.debugf("alloc(%d) -> ref=%#x block=%#x len=%#x gap=%d", size, ref, offB, nbytes, gap*layout.Alignment)
	return ref, a.arena[offB+layout.HeaderSize : end : end], nil
}

// fail abandons a reserved list slot after the buffer turned the request
// away. If the reservation is still the newest, one CAS rescinds it
// outright; otherwise the slot is deposited as a ghost (released, zero
// length) for the reclamation walk to retire.
func (a *RingAllocator) fail(slot uint32, reserved uint64) {
	atomic.AddUint64(&a.stats.allocFailures, 1)

	lt := layout.QueueTail(reserved)
	ll := layout.QueueLength(reserved)
	if atomic.CompareAndSwapUint64(&a.listq, reserved, layout.PackQueue(lt, ll-1)) {
		atomic.AddUint64(&a.stats.rescinds, 1)
		return
	}

	atomic.StoreUint64(&a.slots[slot], layout.EntryFreeBit)
	atomic.AddUint64(&a.stats.ghostDeposits, 1)
	a.debugf("alloc ghost deposited at slot %d", slot)

	// The ghost may already sit at the list tail with no further frees
	// coming; run a walk so it cannot pin the queue.
	a.reclaim()
}

// Free releases the block behind ref. The block's descriptor is flagged,
// then the reclamation walk retires every consecutively released
// descriptor from the list tail. Misuse that is still detectable (foreign
// or stale refs, repeated frees) returns an error; freeing an address that
// has since been reallocated is undefined, as for any allocator.
func (a *RingAllocator) Free(ref Ref) error {
	atomic.AddUint64(&a.stats.freeCalls, 1)

	if ref < layout.HeaderSize || ref%layout.Alignment != 0 || uint64(ref) >= uint64(len(a.arena)) {
		return ErrBadRef
	}
	blockB := ref - layout.HeaderSize
	owner := layout.BlockOwner(a.arena, int(blockB))
	if owner < 0 || uint32(owner) >= a.slotCount {
		return ErrBadRef
	}

	// Flag the descriptor released. CAS rather than fetch-or so the entry
	// can be validated against the ref first: the descriptor must be
	// live and must point back at this block.
	idx := uint32(owner)
	offW := blockB / layout.Alignment
	for {
		e := atomic.LoadUint64(&a.slots[idx])
		if layout.EntryLength(e) == 0 || layout.EntryOffset(e) != offW {
			return ErrBadRef
		}
		if layout.EntryFree(e) {
			return ErrDoubleFree
		}
		if atomic.CompareAndSwapUint64(&a.slots[idx], e, e|layout.EntryFreeBit) {
			break
		}
	}

	a.debugf("free(%#x) slot=%d", ref, idx)
	a.reclaim()
	return nil
}

// reclaim walks the list from its tail, retiring every entry whose owner
// has released it. Exactly one walker can win the zeroing CAS for a given
// entry; a walker that loses stops, since the winner will make the
// progress instead.
func (a *RingAllocator) reclaim() {
	for {
		lq := atomic.LoadUint64(&a.listq)
		lt, ll := layout.QueueTail(lq), layout.QueueLength(lq)
		if ll == 0 {
			return
		}

		e := atomic.LoadUint64(&a.slots[lt])
		if e == 0 || !layout.EntryFree(e) {
			// Reserved or still live: the tail owner has not freed.
			return
		}

		// Claim the retirement by zeroing the entry. Losing means a
		// concurrent walker claimed it first.
		if !atomic.CompareAndSwapUint64(&a.slots[lt], e, 0) {
			return
		}

		if n := layout.EntryLength(e); n == 0 {
			atomic.AddUint64(&a.stats.retiredGhosts, 1)
		} else {
			a.retireBlock(layout.EntryOffset(e), n)
			atomic.AddUint64(&a.stats.retiredBlocks, 1)
		}
		a.advanceListTail(lt)
	}
}

// retireBlock returns the buffer bytes of a retired entry, plus any gap
// blocks between the buffer tail and the block. The walk has already
// zeroed the entry, so this thread holds exclusive retirement rights: no
// other walker can pass the zeroed tail, and the buffer tail cannot move
// underneath us.
//
// Everything between the buffer tail and offW is wrap padding: the list is
// ordered by buffer position, so when an entry reaches the list tail every
// older real block is already retired. Skipping the padding by arithmetic
// - rather than reading the headers of blocks we never acquired - keeps
// the release/acquire discipline intact.
func (a *RingAllocator) retireBlock(offW, n uint32) {
	offB := int(offW) * layout.Alignment
	if got := layout.BlockLength(a.arena, offB); got != n*layout.Alignment {
		panic(fmt.Sprintf("alloc: block %#x header length %#x disagrees with descriptor %#x; allocator state is corrupt",
			offB, got, n*layout.Alignment))
	}

	// Sever the block from its slot before the bytes become reusable, so
	// a stale Free of this ref fails validation instead of resolving.
	layout.PutBlockOwner(a.arena, offB, layout.GapOwner)

	expect := uint32(0)
	for first := true; ; first = false {
		bq := atomic.LoadUint64(&a.bufq)
		bt, bl := layout.QueueTail(bq), layout.QueueLength(bq)
		if first {
			expect = bt
		} else if bt != expect {
			// Only a concurrent allocator extending the length can
			// race us here; the tail is exclusively ours.
			panic("alloc: buffer tail moved during retirement; allocator state is corrupt")
		}

		skip := (offW + a.words - bt) % a.words
		adv := skip + n
		if adv > bl {
			panic("alloc: buffer queue shorter than retired block; allocator state is corrupt")
		}
		if atomic.CompareAndSwapUint64(&a.bufq, bq, layout.PackQueue((bt+adv)%a.words, bl-adv)) {
			a.debugf("retire block=%#x len=%#x skip=%#x", offB, n*layout.Alignment, skip*layout.Alignment)
			return
		}
		atomic.AddUint64(&a.stats.casRetries, 1)
	}
}

// advanceListTail moves the list tail past the slot just retired. A lost
// CAS can only mean an allocator bumped the length; the tail itself is
// exclusively ours until this succeeds.
func (a *RingAllocator) advanceListTail(lt uint32) {
	for {
		lq := atomic.LoadUint64(&a.listq)
		if layout.QueueTail(lq) != lt {
			panic("alloc: list tail moved during retirement; allocator state is corrupt")
		}
		next := layout.PackQueue((lt+1)%a.slotCount, layout.QueueLength(lq)-1)
		if atomic.CompareAndSwapUint64(&a.listq, lq, next) {
			return
		}
		atomic.AddUint64(&a.stats.casRetries, 1)
	}
}

// Stats returns a snapshot of the allocator's internal counters.
func (a *RingAllocator) Stats() Stats {
	return Stats{
		AllocCalls:    atomic.LoadUint64(&a.stats.allocCalls),
		AllocFailures: atomic.LoadUint64(&a.stats.allocFailures),
		GhostDeposits: atomic.LoadUint64(&a.stats.ghostDeposits),
		Rescinds:      atomic.LoadUint64(&a.stats.rescinds),
		GapBlocks:     atomic.LoadUint64(&a.stats.gapBlocks),
		FreeCalls:     atomic.LoadUint64(&a.stats.freeCalls),
		RetiredBlocks: atomic.LoadUint64(&a.stats.retiredBlocks),
		RetiredGhosts: atomic.LoadUint64(&a.stats.retiredGhosts),
		CASRetries:    atomic.LoadUint64(&a.stats.casRetries),
	}
}

func (a *RingAllocator) debugf(format string, args ...any) {
	if debugAlloc || logAlloc {
		fmt.Fprintf(os.Stderr, "circalloc: "+format+"\n", args...)
	}
}

// Compile-time interface check
var _ Allocator = (*RingAllocator)(nil)
