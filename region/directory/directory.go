// Package directory holds the in-memory chunk directory of a region file:
// which sector run and timestamp each of the 1024 slots maps to.
//
// The directory is a fixed table indexed by slot, built once from the
// on-disk header and then kept in step with every put and delete. Loading
// enforces the layout rules a valid file must satisfy. Runs that break
// them are dropped (treated as empty) and reported as issues so the caller
// can decide whether to continue.
package directory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
	"github.com/joshuapare/regionkit/region/alloc"
)

// Directory maps slots to allocation records. The zero value is an empty
// directory.
type Directory struct {
	entries [format.SlotCount]format.Entry
	used    int
}

// Load parses a raw header and builds a directory for a file of fileSectors
// sectors. Malformed entries are reported as issues, not errors; the only
// error is a header shorter than format.HeaderSize.
func Load(b []byte, fileSectors uint32) (*Directory, []types.SlotIssue, error) {
	h, err := format.ParseHeader(b)
	var issues []types.SlotIssue
	if err != nil {
		var he *format.HeaderError
		if !errors.As(err, &he) {
			return nil, nil, err
		}
		for _, is := range he.Issues {
			start, count := format.UnpackEntry(is.Raw)
			issues = append(issues, types.SlotIssue{
				Slot:   is.Slot,
				Coord:  types.CoordFromIndex(is.Slot),
				Kind:   types.IssueBadEntry,
				Run:    types.SectorRun{Start: start, Count: count},
				Detail: is.Reason,
			})
			h.Entries[is.Slot].Timestamp = 0
		}
	}
	d, more := Build(h, fileSectors)
	issues = append(issues, more...)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Slot < issues[j].Slot })
	return d, issues, nil
}

// Build validates the runs in h against a file of fileSectors sectors.
//
// A run that ends past the file is dropped. Remaining runs are swept in
// ascending start order (lower slot first on ties); a run that starts
// before the end of the last accepted run is dropped and the issue names
// the slot it collided with. Dropped slots keep their timestamp at zero.
func Build(h format.Header, fileSectors uint32) (*Directory, []types.SlotIssue) {
	d := &Directory{}
	var issues []types.SlotIssue

	type cand struct {
		slot int
		e    format.Entry
	}
	var cands []cand
	for slot, e := range h.Entries {
		if e.IsEmpty() {
			d.entries[slot].Timestamp = e.Timestamp
			continue
		}
		if e.End() > fileSectors {
			issues = append(issues, types.SlotIssue{
				Slot:   slot,
				Coord:  types.CoordFromIndex(slot),
				Kind:   types.IssueOutOfBounds,
				Run:    types.SectorRun{Start: e.Start, Count: e.Count},
				Detail: fmt.Sprintf("run ends at sector %d, file has %d", e.End(), fileSectors),
			})
			continue
		}
		cands = append(cands, cand{slot: slot, e: e})
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].e.Start < cands[j].e.Start })

	lastEnd := uint32(format.FirstDataSector)
	lastSlot := -1
	for _, c := range cands {
		if c.e.Start < lastEnd {
			issues = append(issues, types.SlotIssue{
				Slot:   c.slot,
				Coord:  types.CoordFromIndex(c.slot),
				Kind:   types.IssueOverlap,
				Run:    types.SectorRun{Start: c.e.Start, Count: c.e.Count},
				Other:  lastSlot,
				Detail: fmt.Sprintf("overlaps slot %d", lastSlot),
			})
			continue
		}
		d.entries[c.slot] = c.e
		d.used++
		lastEnd = c.e.End()
		lastSlot = c.slot
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Slot < issues[j].Slot })
	return d, issues
}

// Get returns the record for c, or false if the slot is empty or c is off the grid.
func (d *Directory) Get(c types.Coord) (types.AllocationRecord, bool) {
	if !c.Valid() {
		return types.AllocationRecord{}, false
	}
	e := d.entries[c.Index()]
	if e.IsEmpty() {
		return types.AllocationRecord{}, false
	}
	return record(c.Index(), e), true
}

// Set points c at run with timestamp ts. The caller guarantees that run does
// not overlap any other slot's run.
func (d *Directory) Set(c types.Coord, run types.SectorRun, ts types.Timestamp) {
	i := c.Index()
	if d.entries[i].IsEmpty() && !run.IsEmpty() {
		d.used++
	}
	d.entries[i] = format.Entry{Start: run.Start, Count: run.Count, Timestamp: uint32(ts)}
}

// Clear empties c and zeroes its timestamp.
func (d *Directory) Clear(c types.Coord) {
	i := c.Index()
	if !d.entries[i].IsEmpty() {
		d.used--
	}
	d.entries[i] = format.Entry{}
}

// Len returns the number of occupied slots.
func (d *Directory) Len() int { return d.used }

// Timestamp returns the stored timestamp of c, occupied or not.
func (d *Directory) Timestamp(c types.Coord) types.Timestamp {
	return types.Timestamp(d.entries[c.Index()].Timestamp)
}

// Snapshot returns every occupied record in slot order.
func (d *Directory) Snapshot() []types.AllocationRecord {
	out := make([]types.AllocationRecord, 0, d.used)
	for i, e := range d.entries {
		if !e.IsEmpty() {
			out = append(out, record(i, e))
		}
	}
	return out
}

// Records returns every occupied record in ascending start order.
func (d *Directory) Records() []types.AllocationRecord {
	out := d.Snapshot()
	sort.Slice(out, func(i, j int) bool { return out[i].Run.Start < out[j].Run.Start })
	return out
}

// Used returns the occupied runs as allocator ranges, in slot order.
func (d *Directory) Used() []alloc.Range {
	out := make([]alloc.Range, 0, d.used)
	for _, e := range d.entries {
		if !e.IsEmpty() {
			out = append(out, alloc.Range{Start: e.Start, End: e.End()})
		}
	}
	return out
}

// Present returns the occupancy bitmask.
func (d *Directory) Present() types.Bitmask {
	var m types.Bitmask
	for i, e := range d.entries {
		if !e.IsEmpty() {
			m.Set(types.CoordFromIndex(i), true)
		}
	}
	return m
}

// Header returns the directory as an encodable header.
func (d *Directory) Header() format.Header {
	return format.Header{Entries: d.entries}
}

func record(slot int, e format.Entry) types.AllocationRecord {
	return types.AllocationRecord{
		Coord:     types.CoordFromIndex(slot),
		Run:       types.SectorRun{Start: e.Start, Count: e.Count},
		Timestamp: types.Timestamp(e.Timestamp),
	}
}
