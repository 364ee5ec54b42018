// Package alloc manages the free sectors of a region file.
//
// # Overview
//
// Sectors 0 and 1 hold the header and are never handed out. Every other
// sector below the file's sector count is either part of exactly one chunk
// run or free. The allocator keeps the free sectors as a sorted list of
// disjoint, maximally coalesced ranges, so the free list is always the exact
// complement of the occupied runs.
//
// # Allocation
//
// Allocate is first-fit: the free ranges are scanned in ascending start
// order and the first range large enough is split, the leading part handed
// out. When nothing fits, the run is placed at end of file (absorbing a free
// range that already touches end of file) and the file grows through the
// Grower collaborator:
//
//	a, err := alloc.New(fileSectors, used, file)
//	r, err := a.Allocate(3)      // [start, start+3)
//	err = a.Free(r)              // coalesces with both neighbours
//
// There are no size classes and no best-fit search. Region files hold at
// most 1024 runs, so a linear scan over the free list is cheap.
//
// # Limits
//
// A run start is a 24-bit field, so no run may begin at or past sector
// 0x1000000. Allocations that would cross that limit fail with ErrNoSpace.
//
// # Debugging
//
// Setting REGION_LOG_ALLOC in the environment logs every allocation, free
// and growth through the allocator's logger at debug level.
package alloc
