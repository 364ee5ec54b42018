package format

import (
	"fmt"
	"strings"
)

// Entry is one slot of the header: the packed sector-table value split into
// its fields, plus the parallel timestamp-table value.
//
//	sector table entry (u32 BE):  |  start:24  | count:8 |
//	timestamp entry    (u32 BE):  unix seconds
type Entry struct {
	Start     uint32
	Count     uint8
	Timestamp uint32
}

// IsEmpty reports whether the slot holds no run.
func (e Entry) IsEmpty() bool {
	return e.Start == 0 && e.Count == 0
}

// End returns the first sector past the run.
func (e Entry) End() uint32 {
	return e.Start + uint32(e.Count)
}

// Header is the decoded pair of header tables, indexed by slot.
type Header struct {
	Entries [SlotCount]Entry
}

// PackEntry packs a start sector and count into a sector-table value.
func PackEntry(start uint32, count uint8) uint32 {
	return start<<8 | uint32(count)
}

// UnpackEntry splits a sector-table value into start sector and count.
func UnpackEntry(v uint32) (uint32, uint8) {
	return v >> 8, uint8(v & 0xFF)
}

// SectorEntryOffset returns the byte offset of a slot's sector-table entry.
func SectorEntryOffset(slot int) int {
	return SectorTableOffset + slot*EntrySize
}

// TimestampEntryOffset returns the byte offset of a slot's timestamp entry.
func TimestampEntryOffset(slot int) int {
	return TimestampTableOffset + slot*EntrySize
}

// EntryIssue describes one sector-table entry rejected by ParseHeader.
type EntryIssue struct {
	Slot   int
	Raw    uint32
	Reason string
}

// HeaderError lists every malformed entry found while parsing a header.
type HeaderError struct {
	Issues []EntryIssue
}

func (e *HeaderError) Error() string {
	if len(e.Issues) == 1 {
		is := e.Issues[0]
		return fmt.Sprintf("header slot %d (0x%08X): %s", is.Slot, is.Raw, is.Reason)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("slot %d: %s", is.Slot, is.Reason))
	}
	return fmt.Sprintf("header has %d invalid entries (%s)", len(e.Issues), strings.Join(parts, "; "))
}

func (e *HeaderError) Unwrap() error { return ErrBadEntry }

// ParseHeader decodes both header tables from b.
//
// Entries with a zero count but a nonzero start, or a nonzero count that
// starts inside the header, are reported through a *HeaderError. The
// returned Header is still usable: offending slots are cleared to empty and
// their timestamps preserved.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, fmt.Errorf("region header: %w (%d < %d bytes)", ErrTruncated, len(b), HeaderSize)
	}

	var issues []EntryIssue
	for slot := range SlotCount {
		raw := ReadU32(b, SectorEntryOffset(slot))
		start, count := UnpackEntry(raw)
		ts := ReadU32(b, TimestampEntryOffset(slot))

		switch {
		case count == 0 && start != 0:
			issues = append(issues, EntryIssue{Slot: slot, Raw: raw, Reason: "zero sector count with nonzero offset"})
			start = 0
		case count > 0 && start < FirstDataSector:
			issues = append(issues, EntryIssue{Slot: slot, Raw: raw, Reason: "run overlaps header sectors"})
			start, count = 0, 0
		}
		h.Entries[slot] = Entry{Start: start, Count: count, Timestamp: ts}
	}

	if len(issues) > 0 {
		return h, &HeaderError{Issues: issues}
	}
	return h, nil
}

// PutEntry encodes one slot of h into a header-sized buffer.
func (h *Header) PutEntry(b []byte, slot int) {
	e := h.Entries[slot]
	PutU32(b, SectorEntryOffset(slot), PackEntry(e.Start, e.Count))
	PutU32(b, TimestampEntryOffset(slot), e.Timestamp)
}

// AppendBinary appends the HeaderSize-byte encoding of h to b.
func (h *Header) AppendBinary(b []byte) ([]byte, error) {
	off := len(b)
	b = append(b, make([]byte, HeaderSize)...)
	out := b[off:]
	for slot := range SlotCount {
		h.PutEntry(out, slot)
	}
	return b, nil
}

// MarshalBinary returns the HeaderSize-byte encoding of h.
func (h *Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize))
}

// SerializeHeader is MarshalBinary without the error return.
func SerializeHeader(h *Header) []byte {
	b, _ := h.MarshalBinary()
	return b
}
