package alloc

import "errors"

var (
	// ErrNoSpace indicates the run would extend past the addressable sector space.
	ErrNoSpace = errors.New("alloc: sector space exhausted")

	// ErrBadRange indicates a range that is empty, inside the header, or past end of file.
	ErrBadRange = errors.New("alloc: bad sector range")

	// ErrDoubleFree indicates a range that overlaps sectors that are already free.
	ErrDoubleFree = errors.New("alloc: range already free")

	// ErrGrowFail indicates the backing file could not be extended.
	ErrGrowFail = errors.New("alloc: grow failed")

	// ErrBadCount indicates a request for zero sectors or more than a run can hold.
	ErrBadCount = errors.New("alloc: sector count must be 1..255")
)
