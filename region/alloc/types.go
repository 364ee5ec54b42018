package alloc

import (
	"fmt"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
)

// Range is a half-open sector range [Start, End).
type Range struct {
	Start uint32
	End   uint32
}

// RangeOf converts a chunk run to a Range.
func RangeOf(r types.SectorRun) Range {
	return Range{Start: r.Start, End: r.End()}
}

// Len returns the number of sectors in r.
func (r Range) Len() uint32 { return r.End - r.Start }

// IsEmpty reports whether r covers no sectors.
func (r Range) IsEmpty() bool { return r.End <= r.Start }

// Run converts r back to a chunk run. r must be at most MaxSectorCount long.
func (r Range) Run() types.SectorRun {
	return types.SectorRun{Start: r.Start, Count: uint8(r.Len())}
}

// Overlaps reports whether r and o share a sector.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Grower extends the backing file so that it holds sectors total sectors.
// Implementations must leave the file unchanged when they return an error.
type Grower interface {
	GrowSectors(sectors uint32) error
}

// Allocator is the contract the region orchestrator relies on.
type Allocator interface {
	// Allocate returns count contiguous free sectors, growing the file if needed.
	Allocate(count uint32) (Range, error)

	// Free returns r to the free list.
	Free(r Range) error

	// Shrink keeps the leading newCount sectors of an allocated run and frees the rest.
	Shrink(r Range, newCount uint32) (Range, error)

	// FileSectors is the current file length in sectors.
	FileSectors() uint32
}

// Stats counts allocator activity for tests and instrumentation.
type Stats struct {
	AllocCalls       int
	FreeCalls        int
	Splits           int
	Appends          int
	GrowCalls        int
	GrowSectors      int64
	CoalesceForward  int
	CoalesceBackward int
}

// limit is the first sector a run may not reach past.
const limit = uint32(format.SectorLimit)
