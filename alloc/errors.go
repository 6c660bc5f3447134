package alloc

import "errors"

var (
	// ErrSizeRange indicates a zero-size request or one too large for the arena.
	ErrSizeRange = errors.New("alloc: size must be positive and fit the arena")

	// ErrNoSlots indicates that every descriptor slot is occupied.
	ErrNoSlots = errors.New("alloc: descriptor list full")

	// ErrNoSpace indicates that the arena cannot hold the request without
	// collapsing to the ambiguous completely-full state.
	ErrNoSpace = errors.New("alloc: arena full")

	// ErrBadRef indicates a reference that does not resolve to a live block.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrDoubleFree indicates a reference whose block is already released.
	ErrDoubleFree = errors.New("alloc: block already freed")

	// ErrArenaSize indicates an arena that is empty, unaligned, or over 4 GiB.
	ErrArenaSize = errors.New("alloc: arena must be a non-empty multiple of 16 bytes, at most 4 GiB")

	// ErrNoDescriptors indicates an empty descriptor array at construction.
	ErrNoDescriptors = errors.New("alloc: descriptor array must not be empty")
)
