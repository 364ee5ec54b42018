package types

import "fmt"

// IssueKind classifies a problem found while loading a header.
type IssueKind int

const (
	IssueBadEntry    IssueKind = iota // zero count with offset, or run inside the header
	IssueOutOfBounds                  // run extends past end of file or addressable space
	IssueOverlap                      // run intersects an earlier accepted run
	IssueFileSize                     // file length is not a whole number of sectors
)

func (k IssueKind) String() string {
	switch k {
	case IssueBadEntry:
		return "bad entry"
	case IssueOutOfBounds:
		return "out of bounds"
	case IssueOverlap:
		return "overlap"
	case IssueFileSize:
		return "file size"
	default:
		return fmt.Sprintf("issue(%d)", int(k))
	}
}

// SlotIssue flags one header slot that was treated as empty on load.
// File-level issues use Slot -1.
type SlotIssue struct {
	Slot   int       `json:"slot"`
	Coord  Coord     `json:"coord"`
	Kind   IssueKind `json:"kind"`
	Run    SectorRun `json:"run"`              // run as stored in the header
	Other  int       `json:"other,omitempty"`  // slot this run conflicts with (IssueOverlap)
	Detail string    `json:"detail,omitempty"` // human-readable explanation
}

func (s SlotIssue) String() string {
	if s.Slot < 0 {
		return fmt.Sprintf("%s: %s", s.Kind, s.Detail)
	}
	switch s.Kind {
	case IssueOverlap:
		return fmt.Sprintf("slot %d %s run %s overlaps slot %d", s.Slot, s.Coord, s.Run, s.Other)
	default:
		return fmt.Sprintf("slot %d %s %s: %s", s.Slot, s.Coord, s.Kind, s.Detail)
	}
}
