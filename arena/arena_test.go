package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Aligned(t *testing.T) {
	for _, size := range []int{16, 64, 4096, 1 << 20} {
		buf, err := New(size)
		require.NoError(t, err, "New(%d)", size)
		require.Len(t, buf, size)
		assert.Zero(t, uintptr(unsafe.Pointer(&buf[0]))%16,
			"arena base for size %d should be 16-byte aligned", size)
	}
}

func TestNew_Rejects(t *testing.T) {
	for _, size := range []int{0, -16, 8, 17, 100} {
		_, err := New(size)
		require.ErrorIs(t, err, ErrSize, "New(%d)", size)
	}
}

func TestSlots_Zeroed(t *testing.T) {
	s := Slots(128)
	require.Len(t, s, 128)
	for i, v := range s {
		require.Zero(t, v, "slot %d", i)
	}
}

func TestMap_RoundTrip(t *testing.T) {
	buf, cleanup, err := Map(1 << 16)
	require.NoError(t, err)
	require.Len(t, buf, 1<<16)
	assert.Zero(t, uintptr(unsafe.Pointer(&buf[0]))%16)

	// Mapped memory must be writable and start zeroed.
	assert.Zero(t, buf[0])
	buf[0], buf[len(buf)-1] = 0xAA, 0xBB
	assert.Equal(t, byte(0xAA), buf[0])

	require.NoError(t, cleanup())
}

func TestMap_Rejects(t *testing.T) {
	_, _, err := Map(17)
	require.ErrorIs(t, err, ErrSize)
}
