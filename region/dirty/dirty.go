package dirty

import (
	"context"
	"fmt"
	"sort"

	"github.com/joshuapare/regionkit/internal/format"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

// FlushMode controls durability guarantees for header flushes.
type FlushMode int

const (
	// FlushAuto provides safe defaults for most use cases:
	// - fdatasync() dirty data sectors before the header is written
	// - fdatasync() after the header write.
	FlushAuto FlushMode = iota

	// FlushDataOnly syncs data sectors before the header write but leaves the
	// header itself to the OS. Use this when batching flushes together.
	FlushDataOnly

	// FlushFull is FlushAuto with F_FULLFSYNC on macOS, for power-loss
	// sensitive workflows.
	FlushFull
)

// String implements the Stringer interface for FlushMode
func (m FlushMode) String() string {
	switch m {
	case FlushAuto:
		return "auto"
	case FlushDataOnly:
		return "data-only"
	case FlushFull:
		return "full"
	default:
		return fmt.Sprintf("FlushMode(%d)", int(m))
	}
}

// ParseFlushMode accepts the names produced by String.
func ParseFlushMode(s string) (FlushMode, error) {
	switch s {
	case "", "auto":
		return FlushAuto, nil
	case "data-only", "data":
		return FlushDataOnly, nil
	case "full":
		return FlushFull, nil
	}
	return FlushAuto, fmt.Errorf("dirty: unknown flush mode %q", s)
}

// Range represents a dirty byte range (absolute file offsets).
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Length in bytes
}

// Tracker accumulates dirty header ranges and flushes them in order.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	f         File
	ranges    []Range // Dirty header ranges (coalesced at flush time)
	dataDirty bool    // payload sectors written since last data sync
	pageSize  int64
}

var _ DirtyTracker = (*Tracker)(nil)

// NewTracker creates a dirty tracker for the given file.
func NewTracker(f File) *Tracker {
	return &Tracker{
		f:        f,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty header range. Ranges are page-aligned and coalesced at
// flush time; Add itself only appends.
func (t *Tracker) Add(off, length int) {
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// AddSlot marks both header entries of slot as dirty.
func (t *Tracker) AddSlot(slot int) {
	t.Add(format.SectorEntryOffset(slot), format.EntrySize)
	t.Add(format.TimestampEntryOffset(slot), format.EntrySize)
}

// MarkData records that payload sectors were written.
func (t *Tracker) MarkData() { t.dataDirty = true }

// HeaderDirty reports whether any header range awaits writing.
func (t *Tracker) HeaderDirty() bool { return len(t.ranges) > 0 }

// DataDirty reports whether payload writes await a sync.
func (t *Tracker) DataDirty() bool { return t.dataDirty }

// FlushDataOnly syncs payload sectors written since the last flush.
// It is a no-op when nothing was written.
func (t *Tracker) FlushDataOnly(ctx context.Context) error {
	if !t.dataDirty {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fdatasync(t.f, false); err != nil {
		return err
	}
	t.dataDirty = false
	return nil
}

// WriteHeader writes the dirty pages of hdr, the full encoded header, to
// the file. Ranges stay marked until the write succeeds.
func (t *Tracker) WriteHeader(ctx context.Context, hdr []byte) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if len(hdr) < format.HeaderSize {
		return fmt.Errorf("dirty: header buffer of %d bytes: %w", len(hdr), format.ErrTruncated)
	}
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(r.Off+r.Len, int64(format.HeaderSize))
		if r.Off >= end {
			continue
		}
		if _, err := t.f.WriteAt(hdr[r.Off:end], r.Off); err != nil {
			return err
		}
	}
	t.ranges = t.ranges[:0]
	return nil
}

// FlushHeaderAndMeta syncs the header according to mode:
//   - FlushAuto: fdatasync()
//   - FlushDataOnly: nothing
//   - FlushFull: fdatasync() + F_FULLFSYNC on macOS
func (t *Tracker) FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if mode == FlushDataOnly {
		return nil
	}
	return fdatasync(t.f, mode == FlushFull)
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.Off+current.Len {
			current.Len = max(current.Off+current.Len, next.Off+next.Len) - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
