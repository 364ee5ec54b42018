package alloc

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/rs/zerolog"

	"github.com/joshuapare/regionkit/internal/format"
)

// Runtime debug flag for allocation logging - controlled by REGION_LOG_ALLOC env var.
var logAlloc = os.Getenv("REGION_LOG_ALLOC") != ""

// SectorAllocator is a first-fit allocator over the sectors of one region file.
//   - free holds disjoint ranges sorted by Start, never adjacent to each other
//   - every free range lies within [FirstDataSector, fileSectors)
//   - fileSectors only grows; Optimize is the only way a file gets shorter.
type SectorAllocator struct {
	free        []Range
	fileSectors uint32
	g           Grower
	log         zerolog.Logger

	stats Stats

	// Test hook: called before the file is grown (nil in production)
	onGrow func(newSectors uint32)
}

var _ Allocator = (*SectorAllocator)(nil)

// New builds an allocator for a file of fileSectors sectors whose occupied runs
// are used. The runs may be in any order but must be disjoint and lie within
// [FirstDataSector, fileSectors); the directory guarantees this on load.
//
// g may be nil, in which case growth only moves the logical end of file.
func New(fileSectors uint32, used []Range, g Grower) (*SectorAllocator, error) {
	if fileSectors < format.HeaderSectors {
		fileSectors = format.HeaderSectors
	}
	sorted := slices.Clone(used)
	sorted = slices.DeleteFunc(sorted, Range.IsEmpty)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	a := &SectorAllocator{
		fileSectors: fileSectors,
		g:           g,
		log:         zerolog.Nop(),
	}

	cursor := uint32(format.FirstDataSector)
	for _, r := range sorted {
		if r.Start < cursor || r.End > fileSectors {
			return nil, fmt.Errorf("%w: used run %s conflicts with layout (cursor %d, file %d sectors)",
				ErrBadRange, r, cursor, fileSectors)
		}
		if r.Start > cursor {
			a.free = append(a.free, Range{Start: cursor, End: r.Start})
		}
		cursor = r.End
	}
	if cursor < fileSectors {
		a.free = append(a.free, Range{Start: cursor, End: fileSectors})
	}
	return a, nil
}

// SetLogger replaces the allocator's logger (zerolog.Nop by default).
func (a *SectorAllocator) SetLogger(l zerolog.Logger) { a.log = l }

// FileSectors returns the file length in sectors, including the header.
func (a *SectorAllocator) FileSectors() uint32 { return a.fileSectors }

// FreeRanges returns a copy of the free list in ascending order.
func (a *SectorAllocator) FreeRanges() []Range { return slices.Clone(a.free) }

// FreeSectors returns the total number of free sectors.
func (a *SectorAllocator) FreeSectors() uint32 {
	var n uint32
	for _, r := range a.free {
		n += r.Len()
	}
	return n
}

// Clone returns an independent copy sharing the same grower and logger.
// Callers use it to roll back a multi-step change that fails part way.
func (a *SectorAllocator) Clone() *SectorAllocator {
	c := *a
	c.free = slices.Clone(a.free)
	return &c
}

// Stats returns a snapshot of allocator counters.
func (a *SectorAllocator) Stats() Stats { return a.stats }

// Allocate returns the first free range of count sectors. If no free range is
// large enough the run is placed at end of file, reusing a free tail that
// touches end of file, and the file grows. A failed grow leaves the
// allocator unchanged.
func (a *SectorAllocator) Allocate(count uint32) (Range, error) {
	if count == 0 || count > format.MaxSectorCount {
		return Range{}, fmt.Errorf("%w: %d", ErrBadCount, count)
	}
	a.stats.AllocCalls++

	for i, f := range a.free {
		if f.Len() < count {
			continue
		}
		r := Range{Start: f.Start, End: f.Start + count}
		if f.Len() == count {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i].Start += count
			a.stats.Splits++
		}
		if logAlloc {
			a.log.Debug().Stringer("run", r).Stringer("from", f).Msg("alloc: first fit")
		}
		return r, nil
	}

	// Nothing fits. Start at the free tail if there is one, else at EOF.
	start := a.fileSectors
	tail := len(a.free) - 1
	hasTail := tail >= 0 && a.free[tail].End == a.fileSectors
	if hasTail {
		start = a.free[tail].Start
	}
	if start > format.MaxSectorStart || uint64(start)+uint64(count) > uint64(limit) {
		return Range{}, fmt.Errorf("%w: run of %d at sector %d", ErrNoSpace, count, start)
	}
	r := Range{Start: start, End: start + count}
	if err := a.growTo(r.End); err != nil {
		return Range{}, err
	}
	if hasTail {
		a.free = a.free[:tail]
	}
	a.stats.Appends++
	if logAlloc {
		a.log.Debug().Stringer("run", r).Uint32("file_sectors", a.fileSectors).Msg("alloc: append")
	}
	return r, nil
}

// growTo extends the file to n sectors. fileSectors changes only on success.
func (a *SectorAllocator) growTo(n uint32) error {
	if n <= a.fileSectors {
		return nil
	}
	if a.onGrow != nil {
		a.onGrow(n)
	}
	if a.g != nil {
		if err := a.g.GrowSectors(n); err != nil {
			return fmt.Errorf("%w: to %d sectors: %w", ErrGrowFail, n, err)
		}
	}
	a.stats.GrowCalls++
	a.stats.GrowSectors += int64(n - a.fileSectors)
	if logAlloc {
		a.log.Debug().Uint32("from", a.fileSectors).Uint32("to", n).Msg("alloc: grow")
	}
	a.fileSectors = n
	return nil
}

// Free inserts r into the free list and merges it with adjacent free ranges.
// A range that is empty, touches the header, extends past end of file or
// overlaps free sectors is rejected and nothing changes.
func (a *SectorAllocator) Free(r Range) error {
	if r.IsEmpty() || r.Start < format.FirstDataSector || r.End > a.fileSectors {
		return fmt.Errorf("%w: %s (file %d sectors)", ErrBadRange, r, a.fileSectors)
	}
	a.stats.FreeCalls++

	// i is the first free range starting at or after r.Start.
	i := sort.Search(len(a.free), func(k int) bool { return a.free[k].Start >= r.Start })
	if i < len(a.free) && a.free[i].Overlaps(r) {
		return fmt.Errorf("%w: %s overlaps %s", ErrDoubleFree, r, a.free[i])
	}
	if i > 0 && a.free[i-1].Overlaps(r) {
		return fmt.Errorf("%w: %s overlaps %s", ErrDoubleFree, r, a.free[i-1])
	}

	mergePrev := i > 0 && a.free[i-1].End == r.Start
	mergeNext := i < len(a.free) && a.free[i].Start == r.End

	switch {
	case mergePrev && mergeNext:
		a.stats.CoalesceBackward++
		a.stats.CoalesceForward++
		a.free[i-1].End = a.free[i].End
		a.free = slices.Delete(a.free, i, i+1)
	case mergePrev:
		a.stats.CoalesceBackward++
		a.free[i-1].End = r.End
	case mergeNext:
		a.stats.CoalesceForward++
		a.free[i].Start = r.Start
	default:
		a.free = slices.Insert(a.free, i, r)
	}
	if logAlloc {
		a.log.Debug().Stringer("run", r).Int("free_ranges", len(a.free)).Msg("alloc: free")
	}
	return nil
}

// Shrink keeps the leading newCount sectors of the allocated run r and frees
// the tail. newCount must be between 1 and r.Len().
func (a *SectorAllocator) Shrink(r Range, newCount uint32) (Range, error) {
	if newCount == 0 || newCount > r.Len() {
		return Range{}, fmt.Errorf("%w: shrink %s to %d", ErrBadCount, r, newCount)
	}
	if newCount == r.Len() {
		return r, nil
	}
	kept := Range{Start: r.Start, End: r.Start + newCount}
	if err := a.Free(Range{Start: kept.End, End: r.End}); err != nil {
		return Range{}, err
	}
	return kept, nil
}
