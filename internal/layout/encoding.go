package layout

import "encoding/binary"

// Little-endian load/store helpers for the words embedded in the arena.
// encoding/binary compiles down to single moves on little-endian hosts,
// so the wrappers cost nothing over hand-rolled shifts.

// PutU32 stores v at b[off:] in little-endian order.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:], v)
}

// PutI32 stores v at b[off:] in little-endian order.
func PutI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:], uint32(v))
}

// PutU64 stores v at b[off:] in little-endian order.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:], v)
}

// ReadU32 loads a little-endian uint32 from b[off:].
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

// ReadI32 loads a little-endian int32 from b[off:].
func ReadI32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off:]))
}

// ReadU64 loads a little-endian uint64 from b[off:].
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off:])
}
