// Package region is the public API for reading and writing region files: a
// 32×32 grid of independently compressed chunks packed into 4096-byte
// sectors behind a two-table header.
//
// # Basic Usage
//
//	r, err := region.OpenOrCreate("r.0.0.mca", nil)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	c := types.WrapCoord(chunkX, chunkZ)
//	if err := r.PutChunk(c, data, types.SchemeZlib, types.Now()); err != nil {
//	    return err
//	}
//	if err := r.FlushHeader(ctx); err != nil {
//	    return err
//	}
//
// # Durability
//
// Payloads are written to their sectors immediately, but the header that
// points at them is only written by FlushHeader, which syncs the data
// sectors first. Close does not flush; a region closed with unflushed
// changes keeps its previous header on disk.
//
// Optimize rewrites the whole file into a temporary sibling and renames it
// over the original, so an interrupted optimize leaves the original intact.
//
// # Concurrency
//
// A Region has no internal locking. Callers must serialize mutations;
// concurrent reads are safe while no mutation is in flight.
package region
