// Package verify checks the layout invariants of a region file image.
// The region tests run these after every mutation, and regionctl validate
// reports their findings.
package verify

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/joshuapare/regionkit/internal/buf"
	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
	"github.com/joshuapare/regionkit/region/alloc"
)

// Error types for different validation failures.
type ValidationError struct {
	Type    string
	Message string
	Slot    int   // -1 when not tied to a slot
	Offset  int64 // -1 when not tied to a file offset
}

func (e *ValidationError) Error() string {
	switch {
	case e.Slot >= 0:
		return fmt.Sprintf("%s slot %d %s: %s", e.Type, e.Slot, types.CoordFromIndex(e.Slot), e.Message)
	case e.Offset >= 0:
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
}

// AllInvariants validates the whole file and returns the first problem, or
// nil if every check passes.
func AllInvariants(r io.ReaderAt, size int64) error {
	if errs := Check(r, size); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Check runs every check and returns all problems found, in file order.
func Check(r io.ReaderAt, size int64) []*ValidationError {
	var errs []*ValidationError
	if e := FileSize(size); e != nil {
		errs = append(errs, e)
		if size < format.HeaderSize {
			return errs
		}
	}

	hdr := make([]byte, format.HeaderSize)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return append(errs, &ValidationError{Type: "Header", Message: err.Error(), Slot: -1, Offset: 0})
	}
	h, herrs := Header(hdr)
	errs = append(errs, herrs...)

	sectors := uint32(size / format.SectorSize)
	errs = append(errs, Runs(h, sectors)...)
	errs = append(errs, Envelopes(r, h, sectors)...)
	return errs
}

// FileSize checks that the file holds a header and whole sectors only.
func FileSize(size int64) *ValidationError {
	if size < format.HeaderSize {
		return &ValidationError{
			Type:    "FileSize",
			Message: fmt.Sprintf("file too small: %d bytes (need %d)", size, format.HeaderSize),
			Slot:    -1, Offset: -1,
		}
	}
	if size%format.SectorSize != 0 {
		return &ValidationError{
			Type:    "FileSize",
			Message: fmt.Sprintf("length %d is not a multiple of %d", size, format.SectorSize),
			Slot:    -1, Offset: size,
		}
	}
	return nil
}

// Header decodes the header and reports malformed entries.
func Header(b []byte) (format.Header, []*ValidationError) {
	h, err := format.ParseHeader(b)
	if err == nil {
		return h, nil
	}
	var he *format.HeaderError
	if !errors.As(err, &he) {
		return h, []*ValidationError{{Type: "Header", Message: err.Error(), Slot: -1, Offset: 0}}
	}
	out := make([]*ValidationError, 0, len(he.Issues))
	for _, is := range he.Issues {
		out = append(out, &ValidationError{
			Type:    "Header",
			Message: fmt.Sprintf("entry 0x%08X: %s", is.Raw, is.Reason),
			Slot:    is.Slot,
			Offset:  int64(format.SectorEntryOffset(is.Slot)),
		})
	}
	return h, out
}

// Runs checks that every occupied run lies inside the file and that no two
// runs share a sector.
func Runs(h format.Header, sectors uint32) []*ValidationError {
	var errs []*ValidationError
	type slotEntry struct {
		slot int
		e    format.Entry
	}
	var live []slotEntry
	for slot, e := range h.Entries {
		if e.IsEmpty() {
			continue
		}
		if _, _, err := buf.CheckRunBounds(int(sectors), int(e.Start), int(e.Count), 1); err != nil {
			errs = append(errs, &ValidationError{
				Type:    "Runs",
				Message: fmt.Sprintf("run [%d,%d) past end of file (%d sectors): %v", e.Start, e.End(), sectors, err),
				Slot:    slot, Offset: -1,
			})
			continue
		}
		live = append(live, slotEntry{slot, e})
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].e.Start < live[j].e.Start })
	for i, far := 1, 0; i < len(live); i++ {
		if live[i].e.Start < live[far].e.End() {
			errs = append(errs, &ValidationError{
				Type:    "Runs",
				Message: fmt.Sprintf("run [%d,%d) overlaps slot %d", live[i].e.Start, live[i].e.End(), live[far].slot),
				Slot:    live[i].slot, Offset: -1,
			})
		}
		if live[i].e.End() > live[far].e.End() {
			far = i
		}
	}
	return errs
}

// Envelopes checks that each in-bounds run starts with a well-formed
// envelope whose length needs exactly the run's sector count.
func Envelopes(r io.ReaderAt, h format.Header, sectors uint32) []*ValidationError {
	var errs []*ValidationError
	prefix := make([]byte, format.EnvelopePrefixSize)
	for slot, e := range h.Entries {
		if e.IsEmpty() || e.End() > sectors {
			continue
		}
		off := format.SectorOffset(e.Start)
		if _, err := r.ReadAt(prefix, off); err != nil {
			errs = append(errs, &ValidationError{Type: "Envelope", Message: err.Error(), Slot: slot, Offset: off})
			continue
		}
		length := format.ReadU32(prefix, 0)
		capacity := uint64(e.Count)*format.SectorSize - format.EnvelopeLengthSize
		switch {
		case length == 0:
			errs = append(errs, &ValidationError{Type: "Envelope", Message: "zero length", Slot: slot, Offset: off})
		case uint64(length) > capacity:
			errs = append(errs, &ValidationError{
				Type:    "Envelope",
				Message: fmt.Sprintf("length %d exceeds run capacity %d", length, capacity),
				Slot:    slot, Offset: off,
			})
		case format.EnvelopeSectors(int(length)-format.EnvelopeSchemeSize) != int(e.Count):
			errs = append(errs, &ValidationError{
				Type: "Envelope",
				Message: fmt.Sprintf("length %d needs %d sectors, run has %d",
					length, format.EnvelopeSectors(int(length)-format.EnvelopeSchemeSize), e.Count),
				Slot: slot, Offset: off,
			})
		}
	}
	return errs
}

// FreeList checks that free is exactly the complement of the occupied runs
// of h within [2, sectors), sorted and fully coalesced.
func FreeList(h format.Header, sectors uint32, free []alloc.Range) error {
	for i := 1; i < len(free); i++ {
		if free[i-1].End >= free[i].Start {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("ranges %s and %s not sorted and coalesced", free[i-1], free[i]),
				Slot:    -1, Offset: -1,
			}
		}
	}

	all := append([]alloc.Range(nil), free...)
	for _, e := range h.Entries {
		if !e.IsEmpty() {
			all = append(all, alloc.Range{Start: e.Start, End: e.End()})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })

	cursor := uint32(format.FirstDataSector)
	for _, r := range all {
		if r.Start != cursor {
			kind := "gap"
			if r.Start < cursor {
				kind = "overlap"
			}
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("%s at sector %d (next range %s)", kind, cursor, r),
				Slot:    -1, Offset: format.SectorOffset(cursor),
			}
		}
		cursor = r.End
	}
	if cursor != sectors {
		return &ValidationError{
			Type:    "FreeList",
			Message: fmt.Sprintf("coverage ends at sector %d, file has %d", cursor, sectors),
			Slot:    -1, Offset: -1,
		}
	}
	return nil
}
