// Package region provides low-level access to region files.
//
// # Overview
//
// A region file stores up to 1024 compressed chunks of a 32×32 grid. It is
// a sequence of 4096-byte sectors:
//
//	[sector table - 4KB] [timestamp table - 4KB] [chunk runs ...]
//
// Sector 0 holds 1024 packed (start, count) entries, sector 1 holds 1024
// timestamps, and every chunk occupies a contiguous run of sectors starting
// with a 5-byte envelope (length, compression tag) followed by its payload.
//
// # Key Types
//
//   - File: an open region file with positioned reads and writes, used by
//     the higher-level pkg/region orchestrator
//   - Info: a read-only header view produced by Inspect, used by tooling
//     that only needs to know which chunks exist
//
// # Related Packages
//
//   - region/alloc: first-fit sector allocation
//   - region/directory: slot → run mapping with load-time validation
//   - region/dirty, region/tx: ordered header flushing
//   - region/defrag: compaction and relocation
//   - region/verify: layout invariant checks
package region
