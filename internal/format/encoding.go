package format

import (
	"encoding/binary"

	"github.com/joshuapare/regionkit/internal/buf"
)

// Binary encoding utilities for big-endian integers.
//
// Region files store every integer big-endian. These helpers mirror the
// encoding/binary calls but take an offset so table code reads like the
// layout diagrams.

// PutU32 writes a uint32 value to the buffer at the specified offset in big-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in
// big-endian format. Out-of-bounds reads return 0.
func ReadU32(b []byte, off int) uint32 {
	return buf.U32BEAt(b, off)
}
