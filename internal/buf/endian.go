// Package buf contains bounds-checked helpers for decoding untrusted bytes.
package buf

import "encoding/binary"

// U32BE reads a big-endian uint32 from b. Returns 0 when b is too short.
func U32BE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// U32BEAt reads a big-endian uint32 at off. Returns 0 when out of bounds.
func U32BEAt(b []byte, off int) uint32 {
	s, ok := Slice(b, off, 4)
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint32(s)
}
