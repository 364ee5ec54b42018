package dirty

import "io"

// File is what the tracker needs from the region file: positioned writes
// for the header and a descriptor for platform sync calls.
type File interface {
	io.WriterAt
	Fd() uintptr
	Sync() error
}

// DirtyTracker is the minimal interface for components that only report
// header changes and never flush them (the region orchestrator's mutators).
type DirtyTracker interface {
	// Add marks a header byte range as dirty.
	Add(off, length int)

	// MarkData records that payload sectors were written.
	MarkData()
}
