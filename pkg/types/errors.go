package types

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindIO              ErrKind = iota // read/write/seek/truncate/rename failure
	ErrKindCorruptHeader                  // malformed or overlapping header entries
	ErrKindCorruptPayload                 // stored envelope inconsistent with its run
	ErrKindPayloadTooLarge                // payload needs more than 255 sectors
	ErrKindInvalidPlan                    // relocation plan violates layout invariants
	ErrKindNotFound                       // missing file or chunk
	ErrKindClosed                         // use after Close
	ErrKindReadOnly                       // mutation on a read-only handle
	ErrKindCoordRange                     // coordinate outside the grid
	ErrKindUnknownScheme                  // compression tag with no codec
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindIO:
		return "io"
	case ErrKindCorruptHeader:
		return "corrupt header"
	case ErrKindCorruptPayload:
		return "corrupt payload"
	case ErrKindPayloadTooLarge:
		return "payload too large"
	case ErrKindInvalidPlan:
		return "invalid relocation plan"
	case ErrKindNotFound:
		return "not found"
	case ErrKindClosed:
		return "closed"
	case ErrKindReadOnly:
		return "read-only"
	case ErrKindCoordRange:
		return "coordinate out of range"
	case ErrKindUnknownScheme:
		return "unknown scheme"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, types.ErrIO) regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Kind == e.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrIO indicates an underlying file system failure.
	ErrIO = &Error{Kind: ErrKindIO, Msg: "region i/o failure"}
	// ErrCorruptHeader indicates malformed or overlapping header entries.
	ErrCorruptHeader = &Error{Kind: ErrKindCorruptHeader, Msg: "corrupt region header"}
	// ErrCorruptPayload indicates an envelope that does not fit its sectors.
	ErrCorruptPayload = &Error{Kind: ErrKindCorruptPayload, Msg: "corrupt chunk payload"}
	// ErrPayloadTooLarge indicates a payload that needs more than 255 sectors.
	ErrPayloadTooLarge = &Error{Kind: ErrKindPayloadTooLarge, Msg: "chunk payload too large"}
	// ErrInvalidRelocationPlan indicates a plan rejected before any write.
	ErrInvalidRelocationPlan = &Error{Kind: ErrKindInvalidPlan, Msg: "invalid relocation plan"}
	// ErrNotFound indicates a missing file or chunk.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrClosed indicates use of a closed region.
	ErrClosed = &Error{Kind: ErrKindClosed, Msg: "region is closed"}
	// ErrReadOnly indicates a mutation was attempted on a read-only handle.
	ErrReadOnly = &Error{Kind: ErrKindReadOnly, Msg: "region is read-only"}
	// ErrCoordRange indicates a coordinate outside the 32×32 grid.
	ErrCoordRange = &Error{Kind: ErrKindCoordRange, Msg: "coordinate out of range"}
	// ErrUnknownScheme indicates a compression scheme tag with no codec.
	ErrUnknownScheme = &Error{Kind: ErrKindUnknownScheme, Msg: "unknown compression scheme"}
)

// IOError wraps a file system failure of operation op.
func IOError(op string, err error) error {
	return &Error{Kind: ErrKindIO, Msg: op, Err: err}
}

// CorruptPayloadError reports an unreadable envelope at c.
func CorruptPayloadError(c Coord, err error) error {
	return &Error{Kind: ErrKindCorruptPayload, Msg: "chunk " + c.String(), Err: err}
}

// PayloadTooLargeError reports a payload of n compressed bytes needing sectors sectors.
func PayloadTooLargeError(c Coord, n, sectors int) error {
	return &Error{
		Kind: ErrKindPayloadTooLarge,
		Msg:  fmt.Sprintf("chunk %s: %d compressed bytes need %d sectors (max 255)", c, n, sectors),
	}
}

// -----------------------------------------------------------------------------
// Structured errors
// -----------------------------------------------------------------------------

// HeaderError carries every flagged slot found while loading a header.
// It matches ErrCorruptHeader under errors.Is.
type HeaderError struct {
	Path   string
	Issues []SlotIssue
}

func (e *HeaderError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "corrupt region header (%d issue", len(e.Issues))
	if len(e.Issues) != 1 {
		sb.WriteByte('s')
	}
	sb.WriteByte(')')
	for i, is := range e.Issues {
		if i == 3 {
			fmt.Fprintf(&sb, "; +%d more", len(e.Issues)-3)
			break
		}
		sb.WriteString("; ")
		sb.WriteString(is.String())
	}
	return sb.String()
}

func (e *HeaderError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == ErrKindCorruptHeader
}

// PlanError lists every reason a relocation plan was rejected.
// It matches ErrInvalidRelocationPlan under errors.Is.
type PlanError struct {
	Problems []PlanProblem
}

func (e *PlanError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return "invalid relocation plan: " + strings.Join(parts, "; ")
}

func (e *PlanError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == ErrKindInvalidPlan
}
