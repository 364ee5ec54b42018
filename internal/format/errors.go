package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadEntry indicates a sector-table entry that cannot describe a real run.
	ErrBadEntry = errors.New("format: invalid sector table entry")
	// ErrBadEnvelope indicates a stored length that does not fit its sectors.
	ErrBadEnvelope = errors.New("format: invalid payload envelope")
	// ErrEnvelopeTooLarge indicates a payload that needs more than MaxSectorCount sectors.
	ErrEnvelopeTooLarge = errors.New("format: payload exceeds maximum run length")
)
