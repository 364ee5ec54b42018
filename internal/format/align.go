package format

// AlignSector returns n aligned up to the next sector boundary.
//
// Example:
//
//	AlignSector(1)    = 4096
//	AlignSector(4096) = 4096
//	AlignSector(4097) = 8192
func AlignSector(n int64) int64 {
	return (n + SectorAlignmentMask) &^ SectorAlignmentMask
}

// SectorsFor returns the number of sectors needed to hold n bytes.
func SectorsFor(n int64) int64 {
	return AlignSector(n) >> SectorShift
}

// SectorOffset returns the byte offset of a sector index.
func SectorOffset(sector uint32) int64 {
	return int64(sector) << SectorShift
}

// EnvelopeSectors returns the number of sectors an envelope carrying
// compressedLen payload bytes occupies.
func EnvelopeSectors(compressedLen int) int {
	return int(SectorsFor(int64(compressedLen) + EnvelopePrefixSize))
}
