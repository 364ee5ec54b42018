package types

import "fmt"

// SectorSize is the allocation granularity of a region file in bytes.
const SectorSize = 4096

// SectorRun is a contiguous range of sectors assigned to one chunk.
// The zero value is the empty run.
type SectorRun struct {
	Start uint32 `json:"start"`
	Count uint8  `json:"count"`
}

// IsEmpty reports whether the run covers no sectors.
func (r SectorRun) IsEmpty() bool { return r.Count == 0 }

// End returns the first sector past the run.
func (r SectorRun) End() uint32 { return r.Start + uint32(r.Count) }

// Offset returns the byte offset of the run in the file.
func (r SectorRun) Offset() int64 { return int64(r.Start) * SectorSize }

// Size returns the run length in bytes.
func (r SectorRun) Size() int64 { return int64(r.Count) * SectorSize }

// Overlaps reports whether two non-empty runs share a sector.
func (r SectorRun) Overlaps(o SectorRun) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.Start < o.End() && o.Start < r.End()
}

func (r SectorRun) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End())
}
