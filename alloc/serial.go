package alloc

import "github.com/joshuapare/circalloc/internal/layout"

// In-band header states used by SerialAllocator. With a single owner there
// is no descriptor list; each block header carries its own state word.
const (
	stateFree  uint32 = 0 // block released, reclaimable once it reaches the tail
	stateInUse uint32 = 1 // block live
	stateGap   uint32 = 2 // wrap padding; callers never hold a ref to it
)

// SerialAllocator is the single-owner variant of the circular allocator.
// It keeps block state in the headers themselves and tracks the queue with
// plain head/tail offsets, where head == tail means empty.
//
// Key characteristics:
//   - O(1) allocation: header write plus a head bump
//   - Free flags the header, then catches the tail up over released blocks
//   - Zero bookkeeping outside the arena: no descriptor array
//   - Not safe for concurrent use; callers must serialise access
//
// RingAllocator supersedes this design for concurrent producers but keeps
// the identical geometry, so both honour the same sizing and wrap rules.
type SerialAllocator struct {
	arena []byte
	size  uint32

	head uint32
	tail uint32
}

// NewSerial creates a SerialAllocator over the given arena. The arena must
// be a non-empty multiple of 16 bytes, smaller than 4 GiB.
func NewSerial(arena []byte) (*SerialAllocator, error) {
	// Offsets are tracked as plain uint32 byte positions, so a full
	// 4 GiB arena (which the descriptor-based RingAllocator can address
	// in scaled units) is out of range here.
	if len(arena) == 0 || len(arena)%layout.Alignment != 0 || uint64(len(arena)) >= layout.MaxArenaBytes {
		return nil, ErrArenaSize
	}
	return &SerialAllocator{arena: arena, size: uint32(len(arena))}, nil
}

// avail returns the free byte count. Empty means the whole arena.
func (s *SerialAllocator) avail() uint32 {
	if s.head >= s.tail {
		return s.size - s.head + s.tail
	}
	return s.tail - s.head
}

// putBlock writes a block header at the head and advances the head past it.
func (s *SerialAllocator) putBlock(length, state uint32) {
	if length == 0 {
		return
	}
	layout.PutU32(s.arena, int(s.head), state)
	layout.PutU32(s.arena, int(s.head)+4, length)
	s.head = (s.head + length) % s.size
}

// Alloc reserves a block with at least size usable bytes.
func (s *SerialAllocator) Alloc(size uint32) (Ref, []byte, error) {
	nbytes := layout.BlockSize(size)
	if size == 0 || nbytes > uint64(s.size) {
		return 0, nil, ErrSizeRange
	}
	n := uint32(nbytes)

	off := s.head
	rem := uint32(0)

	// If the contiguous run at the arena end is too short, burn it as a
	// gap block and place the real block at offset zero.
	if s.head >= s.tail && s.size-s.head < n {
		rem = s.size - s.head
		off = 0
	}

	// Note the equals: head == tail must keep meaning empty, so a
	// reservation that fills the arena exactly is refused.
	if s.avail() <= n+rem {
		return 0, nil, ErrNoSpace
	}

	s.putBlock(rem, stateGap)
	s.putBlock(n, stateInUse)

	end := off + n
	return Ref(off + layout.HeaderSize), s.arena[off+layout.HeaderSize : end : end], nil
}

// Free releases the block behind ref, then advances the tail over every
// consecutively released block, reclaiming gap padding along the way.
func (s *SerialAllocator) Free(ref Ref) error {
	if ref < layout.HeaderSize || ref%layout.Alignment != 0 || ref >= s.size {
		return ErrBadRef
	}
	off := int(ref - layout.HeaderSize)
	switch layout.ReadU32(s.arena, off) {
	case stateInUse:
		layout.PutU32(s.arena, off, stateFree)
	case stateFree:
		return ErrDoubleFree
	default:
		return ErrBadRef
	}

	// Catch the tail up. A gap block is reclaimable only together with
	// the block that follows it; the block after a gap is never another
	// gap and never the head.
	for s.head != s.tail {
		at := s.tail
		if layout.ReadU32(s.arena, int(at)) == stateGap {
			at = (at + layout.ReadU32(s.arena, int(at)+4)) % s.size
		}
		if layout.ReadU32(s.arena, int(at)) != stateFree {
			return nil
		}
		s.tail = (at + layout.ReadU32(s.arena, int(at)+4)) % s.size
	}
	return nil
}

// Compile-time interface check
var _ Allocator = (*SerialAllocator)(nil)
