package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign16(t *testing.T) {
	assert.Equal(t, 16, Align16(1))
	assert.Equal(t, 16, Align16(16))
	assert.Equal(t, 32, Align16(17))
	assert.Equal(t, 0, Align16(0))
}

func TestBlockSize(t *testing.T) {
	assert.Equal(t, uint64(32), BlockSize(10))
	assert.Equal(t, uint64(32), BlockSize(16))
	assert.Equal(t, uint64(48), BlockSize(17))
	// A request near 4 GiB must not wrap around.
	assert.Equal(t, uint64(1)<<32, BlockSize(1<<32-16))
}

func TestEntryPacking(t *testing.T) {
	cases := []struct {
		free        bool
		off, length uint32
	}{
		{false, 0, 1},
		{true, 0, 1},
		{false, 1<<28 - 1, 1<<28 - 1},
		{true, 1<<28 - 1, 1},
		{false, 0x1234, 0x0ABC},
	}
	for _, tc := range cases {
		e := PackEntry(tc.free, tc.off, tc.length)
		assert.Equal(t, tc.free, EntryFree(e))
		assert.Equal(t, tc.off, EntryOffset(e))
		assert.Equal(t, tc.length, EntryLength(e))
	}

	// The packed states the allocator relies on.
	assert.Equal(t, uint64(0), PackEntry(false, 0, 0), "reserved state is the zero word")
	assert.Equal(t, EntryFreeBit, PackEntry(true, 0, 0), "ghost state is the bare free bit")

	live := PackEntry(false, 7, 9)
	assert.Equal(t, live|EntryFreeBit, PackEntry(true, 7, 9),
		"dead state is the live word plus the free bit")
}

func TestQueuePacking(t *testing.T) {
	q := PackQueue(0x11223344, 0x55667788)
	assert.Equal(t, uint32(0x11223344), QueueTail(q))
	assert.Equal(t, uint32(0x55667788), QueueLength(q))
	assert.Equal(t, uint64(0), PackQueue(0, 0))
}

func TestBlockHeader(t *testing.T) {
	arena := make([]byte, 64)

	PutBlockHeader(arena, 16, 5, 48)
	assert.Equal(t, int32(5), BlockOwner(arena, 16))
	assert.Equal(t, uint32(48), BlockLength(arena, 16))

	PutBlockHeader(arena, 0, GapOwner, 16)
	assert.Equal(t, GapOwner, BlockOwner(arena, 0))

	PutBlockOwner(arena, 16, GapOwner)
	assert.Equal(t, GapOwner, BlockOwner(arena, 16))
	assert.Equal(t, uint32(48), BlockLength(arena, 16), "owner rewrite leaves the length intact")
}

func TestEncodingRoundTrip(t *testing.T) {
	b := make([]byte, 16)

	PutU32(b, 0, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), ReadU32(b, 0))

	PutI32(b, 4, -2)
	require.Equal(t, int32(-2), ReadI32(b, 4))

	PutU64(b, 8, 0x0102030405060708)
	require.Equal(t, uint64(0x0102030405060708), ReadU64(b, 8))
}
