// Package arena constructs the fixed memory regions a circular allocator
// runs over: a byte arena with a 16-byte aligned base, and the pre-zeroed
// descriptor array. Arenas come heap-backed (New) or as anonymous mappings
// (Map) for page-aligned, GC-invisible regions shared with tracing peers.
package arena

import (
	"errors"
	"unsafe"

	"github.com/joshuapare/circalloc/internal/layout"
)

// ErrSize indicates an arena size that is not a positive multiple of 16
// bytes within the allocator's 4 GiB addressing limit.
var ErrSize = errors.New("arena: size must be a positive multiple of 16 bytes, at most 4 GiB")

func addressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// New returns a heap-backed arena of exactly size bytes whose base address
// is 16-byte aligned. It over-allocates by one alignment unit and shifts
// the slice so payload addresses, not just their offsets, are aligned.
func New(size int) ([]byte, error) {
	if size <= 0 || size%layout.Alignment != 0 || uint64(size) > layout.MaxArenaBytes {
		return nil, ErrSize
	}
	buf := make([]byte, size+layout.Alignment)
	shift := 0
	if addr := int(addressOf(buf)); addr%layout.Alignment != 0 {
		shift = layout.Alignment - addr%layout.Alignment
	}
	return buf[shift : size+shift : size+shift], nil
}

// Slots returns a pre-zeroed descriptor array of n 8-byte slots, bounding
// the number of simultaneously live allocations.
func Slots(n int) []uint64 {
	return make([]uint64, n)
}
