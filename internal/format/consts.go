// Package format houses low-level encoders and decoders for the region file
// format. The goal is to keep the byte layout focused and allocation-free where
// possible, independent from the public API so higher-level packages can
// orchestrate the data in a more ergonomic form.
//
// File layout (all integers big-endian):
//
//	Offset   Size   Description
//	------   ----   ---------------------------------------------------------
//	0x0000   4096   sector table, 1024 × u32 (start<<8 | count)
//	0x1000   4096   timestamp table, 1024 × u32 (unix seconds)
//	0x2000   ...    4096-byte sectors holding chunk envelopes
package format

const (
	// SectorSize is the allocation granularity of a region file.
	SectorSize = 4096

	// SectorShift is log2(SectorSize).
	SectorShift = 12

	// SectorAlignmentMask is the bitmask used for aligning to sector boundaries.
	SectorAlignmentMask = SectorSize - 1

	// HeaderSectors is the number of sectors reserved for the two header tables.
	HeaderSectors = 2

	// HeaderSize is the size of both header tables in bytes.
	HeaderSize = HeaderSectors * SectorSize

	// FirstDataSector is the lowest sector index that can hold chunk data.
	FirstDataSector = HeaderSectors

	// GridSize is the number of slots along each axis of the grid.
	GridSize = 32

	// GridMask normalizes an absolute chunk coordinate to a grid slot.
	GridMask = GridSize - 1

	// SlotCount is the total number of slots in a region file.
	SlotCount = GridSize * GridSize

	// EntrySize is the size of one sector-table or timestamp-table entry.
	EntrySize = 4

	// SectorTableOffset is the byte offset of the sector table.
	SectorTableOffset = 0

	// TimestampTableOffset is the byte offset of the timestamp table.
	TimestampTableOffset = SectorSize

	// MaxSectorCount is the largest run length the 8-bit count field can hold.
	MaxSectorCount = 0xFF

	// MaxSectorStart is the largest start sector the 24-bit offset field can hold.
	MaxSectorStart = 0xFFFFFF

	// SectorLimit is the first sector index that cannot be addressed.
	SectorLimit = MaxSectorStart + 1

	// EnvelopeLengthSize is the size of the envelope length prefix.
	EnvelopeLengthSize = 4

	// EnvelopeSchemeSize is the size of the envelope compression tag.
	EnvelopeSchemeSize = 1

	// EnvelopePrefixSize is the number of bytes that precede the compressed payload.
	EnvelopePrefixSize = EnvelopeLengthSize + EnvelopeSchemeSize

	// MaxPayloadSize is the largest compressed payload a single run can store.
	MaxPayloadSize = MaxSectorCount*SectorSize - EnvelopePrefixSize // 1,044,475 bytes
)
