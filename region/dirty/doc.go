// Package dirty tracks which parts of a region header have changed since the
// last flush and writes them back in a crash-safe order.
//
// # Overview
//
// Chunk payloads are written straight to their sectors, but the header that
// points at them is only rewritten on flush. A flush therefore runs in
// three steps:
//
//  1. FlushDataOnly: sync the data sectors written since the last flush
//  2. WriteHeader: write the dirty header pages
//  3. FlushHeaderAndMeta: sync again according to the FlushMode
//
// A crash before step 2 leaves the old header pointing at old, intact runs.
// A crash after step 2 but before step 3 completes may lose the header
// update, never the data it points at.
//
// # Page-Level Granularity
//
// Dirty header ranges are rounded to 4KB pages, sorted and merged before
// writing. The header is two pages (sector table, timestamp table), so a
// flush issues at most two writes.
//
// # Usage
//
//	t := dirty.NewTracker(file)
//	t.AddSlot(slot)       // after changing a slot in memory
//	t.MarkData()          // after writing payload sectors
//	err := t.FlushDataOnly(ctx)
//	err = t.WriteHeader(ctx, headerBytes)
//	err = t.FlushHeaderAndMeta(ctx, dirty.FlushAuto)
//
// Most callers go through tx.Manager, which runs these steps in order.
package dirty
