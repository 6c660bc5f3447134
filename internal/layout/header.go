package layout

// Block header encoding.
//
// Every block in the arena starts with an 8-byte header written in host
// (little-endian) order:
//
//	bytes 0-3  owner: index of the owning list slot, or GapOwner
//	bytes 4-7  total block length in bytes (header + payload + padding)
//
// The header slot is 16 bytes so the payload that follows stays aligned;
// the trailing 8 bytes are never read. Header writes are ordinary stores:
// they become visible to other threads only through the release ordering of
// the list-entry publish that follows them.

// PutBlockHeader writes a block header at byte offset off.
func PutBlockHeader(arena []byte, off int, owner int32, length uint32) {
	PutI32(arena, off, owner)
	PutU32(arena, off+4, length)
}

// BlockOwner reads the owning list-slot index of the block at byte offset
// off, or GapOwner for a gap or retired block.
func BlockOwner(arena []byte, off int) int32 {
	return ReadI32(arena, off)
}

// BlockLength reads the total length in bytes of the block at byte offset off.
func BlockLength(arena []byte, off int) uint32 {
	return ReadU32(arena, off+4)
}

// PutBlockOwner rewrites only the owner field of the block at byte offset
// off. Used by retirement to sever a retired block from its former slot.
func PutBlockOwner(arena []byte, off int, owner int32) {
	PutI32(arena, off, owner)
}
