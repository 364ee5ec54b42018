// Package defrag computes and applies whole-file rearrangements of a region
// file's chunk runs.
//
// # Overview
//
// Defragmentation runs in two phases:
//
//  1. Plan: decide the target run of every occupied slot, validating any
//     caller-supplied relocation moves before anything is written
//  2. Rewrite: copy each run byte-for-byte from the source file to its
//     target in a fresh destination and write a matching header
//
// The destination is normally a writer.AtomicFile, so the original file is
// only replaced once the rewrite is complete and synced.
//
// # Compaction
//
// With no moves, compaction packs records in ascending order of their
// current start sector from sector 2 upward. Every record lands at or
// before its old position and the resulting file has no free sectors:
//
//	before: [hdr][A][ ][B][B][ ][C]
//	after:  [hdr][A][B][B][C]
//
// # Relocation
//
// Moves pin chosen records at explicit start sectors. Without compaction
// every other record stays where it is; with compaction the others are
// packed, in ascending start order, into the lowest gaps that fit around
// the pinned runs.
package defrag
