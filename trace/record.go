// Package trace carries IPC trace records through a circular allocator.
//
// Producers encode short-lived records into blocks allocated from a shared
// arena and hand the block references to a consumer, which decodes and
// releases them in roughly FIFO order - the workload the allocator in
// package alloc is built for. Records store their message text as UTF-16LE
// (the wire convention of the traced hosts) with an xxh3 checksum so a
// consumer can reject torn or stale blocks.
package trace

import (
	"fmt"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/circalloc/internal/layout"
)

// Record is one trace event.
type Record struct {
	Seq  uint64 // sequence number, assigned by the emitting Ring
	Time int64  // unix nanoseconds
	PID  uint32
	TID  uint32
	Text string
}

// Encoded record layout, little-endian:
//
//	0   seq      u64
//	8   time     i64
//	16  pid      u32
//	20  tid      u32
//	24  textLen  u32   UTF-16LE byte count
//	28  reserved u32
//	32  checksum u64   xxh3 of the text bytes
//	40  text     textLen bytes of UTF-16LE
const headerSize = 40

// MaxTextBytes bounds the encoded text, and with it the size of the single
// allocator block a record needs. Whether that block fits depends on the
// arena; Emit fails with ErrRingFull when it does not.
const MaxTextBytes = 1 << 20

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// encodeText converts rec text to its UTF-16LE wire form.
func encodeText(s string) ([]byte, error) {
	text, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("trace: encode text: %w", err)
	}
	if len(text) > MaxTextBytes {
		return nil, ErrTextSize
	}
	return text, nil
}

// putRecord writes the record header and pre-encoded text into dst, which
// must hold at least headerSize+len(text) bytes.
func putRecord(dst []byte, rec Record, text []byte) {
	layout.PutU64(dst, 0, rec.Seq)
	layout.PutU64(dst, 8, uint64(rec.Time))
	layout.PutU32(dst, 16, rec.PID)
	layout.PutU32(dst, 20, rec.TID)
	layout.PutU32(dst, 24, uint32(len(text)))
	layout.PutU64(dst, 32, xxh3.Hash(text))
	copy(dst[headerSize:], text)
}

// EncodedSize returns the number of bytes Encode produces for rec.
func EncodedSize(rec Record) (int, error) {
	text, err := encodeText(rec.Text)
	if err != nil {
		return 0, err
	}
	return headerSize + len(text), nil
}

// Encode serialises rec into a fresh buffer.
func Encode(rec Record) ([]byte, error) {
	text, err := encodeText(rec.Text)
	if err != nil {
		return nil, err
	}
	b := make([]byte, headerSize+len(text))
	putRecord(b, rec, text)
	return b, nil
}

// Decode parses a record from the start of b, verifying its checksum.
func Decode(b []byte) (Record, error) {
	if len(b) < headerSize {
		return Record{}, ErrTruncated
	}
	rawLen := layout.ReadU32(b, 24)
	if rawLen > MaxTextBytes || rawLen%2 != 0 {
		return Record{}, ErrTextSize
	}
	textLen := int(rawLen)
	if len(b) < headerSize+textLen {
		return Record{}, ErrTruncated
	}

	text := b[headerSize : headerSize+textLen]
	if xxh3.Hash(text) != layout.ReadU64(b, 32) {
		return Record{}, ErrChecksum
	}
	decoded, err := utf16le.NewDecoder().Bytes(text)
	if err != nil {
		return Record{}, fmt.Errorf("trace: decode text: %w", err)
	}

	return Record{
		Seq:  layout.ReadU64(b, 0),
		Time: int64(layout.ReadU64(b, 8)),
		PID:  layout.ReadU32(b, 16),
		TID:  layout.ReadU32(b, 20),
		Text: string(decoded),
	}, nil
}
