package layout

// Binary layout constants for the circular allocator.
//
// The arena is carved into blocks aligned to 16 bytes. Every block starts
// with an 8-byte header, padded to a full 16-byte slot so payloads stay
// 16-aligned. List entries and queue descriptors are single 64-bit words so
// they can be updated with one compare-and-swap.

const (
	// Alignment is the payload alignment and the unit in which list
	// entries and the buffer queue count space.
	Alignment = 16

	// AlignmentMask is Alignment - 1, for round-up arithmetic.
	AlignmentMask = Alignment - 1

	// HeaderSize is the number of bytes a block header occupies. The
	// encoded header is 8 bytes; the remaining 8 keep the payload at a
	// 16-byte boundary.
	HeaderSize = 16

	// EncodedHeaderSize is the number of header bytes actually written.
	EncodedHeaderSize = 8

	// MaxArenaBytes is the largest arena the 28-bit scaled offsets in a
	// list entry can address: 2^28 units of 16 bytes = 4 GiB.
	MaxArenaBytes = 1 << 32

	// fieldBits is the width of the offset and length fields in a list
	// entry, in bits. Both fields are in units of Alignment.
	fieldBits = 28

	fieldMask = (1 << fieldBits) - 1
)

// GapOwner is the block-header owner value marking a gap block: wrap-around
// padding with no list entry. Retired blocks are also re-marked with
// GapOwner so stale references fail validation instead of resolving.
const GapOwner int32 = -1
