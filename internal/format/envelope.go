package format

import (
	"fmt"

	"github.com/joshuapare/regionkit/internal/buf"
)

// Envelope is the framed payload stored at the start of a chunk's run.
//
//	Offset  Size  Description
//	------  ----  ------------------------------------------------
//	 0x00    4    length = 1 + len(payload) (u32 BE)
//	 0x04    1    compression scheme tag
//	 0x05    n    payload
//	 ...          zero padding to the next sector boundary
type Envelope struct {
	Scheme  byte
	Payload []byte
}

// Sectors returns the number of sectors the encoded envelope occupies.
func (e Envelope) Sectors() int {
	return EnvelopeSectors(len(e.Payload))
}

// AppendEnvelope appends the sector-padded encoding of an envelope to dst.
func AppendEnvelope(dst []byte, scheme byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return dst, fmt.Errorf("%w: %d bytes needs %d sectors", ErrEnvelopeTooLarge,
			len(payload), EnvelopeSectors(len(payload)))
	}
	total := EnvelopeSectors(len(payload)) * SectorSize
	off := len(dst)
	dst = append(dst, make([]byte, total)...)
	out := dst[off:]
	PutU32(out, 0, uint32(len(payload)+EnvelopeSchemeSize))
	out[EnvelopeLengthSize] = scheme
	copy(out[EnvelopePrefixSize:], payload)
	return dst, nil
}

// EncodeEnvelope returns the sector-padded encoding of an envelope.
func EncodeEnvelope(scheme byte, payload []byte) ([]byte, error) {
	return AppendEnvelope(nil, scheme, payload)
}

// DecodeEnvelope parses the envelope at the start of run, which holds the
// whole sector run as read from disk. The returned payload aliases run.
func DecodeEnvelope(run []byte) (Envelope, error) {
	if len(run) < EnvelopePrefixSize {
		return Envelope{}, fmt.Errorf("%w: run of %d bytes has no room for prefix", ErrBadEnvelope, len(run))
	}
	length := ReadU32(run, 0)
	if length == 0 {
		return Envelope{}, fmt.Errorf("%w: zero length", ErrBadEnvelope)
	}
	payload, ok := buf.Slice(run, EnvelopePrefixSize, int(length)-EnvelopeSchemeSize)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: length %d exceeds %d allocated bytes",
			ErrBadEnvelope, length, len(run)-EnvelopeLengthSize)
	}
	return Envelope{
		Scheme:  run[EnvelopeLengthSize],
		Payload: payload,
	}, nil
}
