package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("syncache: corrupt entry")
	magic4     = [...]byte{'S', 'Y', 'N', 'C'}
)

// Entry is the framed form of a cached record.
type Entry struct {
	Gen      uint64
	StoredAt time.Time
	Payload  []byte
}

// Encode frames e as:
//
//	magic(4) | ver(1) | gen(u64 be) | storedAt(i64 be, unix nanos) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.StoredAt.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode parses a framed entry. Payload aliases b. Trailing bytes after the
// payload are rejected.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	off := 5

	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	nanos := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Gen:      gen,
		StoredAt: time.Unix(0, nanos),
		Payload:  b[off:],
	}, nil
}
