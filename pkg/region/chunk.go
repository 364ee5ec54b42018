package region

import (
	"errors"
	"fmt"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
	"github.com/joshuapare/regionkit/region/alloc"
)

// GetChunk reads and decompresses the chunk at c. It returns false when the
// slot is empty.
//
// An envelope whose length field is zero or does not fit its run fails with
// types.ErrCorruptPayload, as does a payload the codec cannot decode. A
// scheme tag with no codec fails with types.ErrUnknownScheme.
func (r *Region) GetChunk(c types.Coord) (types.Chunk, bool, error) {
	raw, ok, err := r.GetEnvelope(c)
	if err != nil || !ok {
		return types.Chunk{}, ok, err
	}
	data, err := r.codec.Decompress(raw.Scheme, raw.Payload)
	if err != nil {
		if errors.Is(err, types.ErrUnknownScheme) {
			return types.Chunk{}, false, fmt.Errorf("chunk %s: %w", c, err)
		}
		r.metrics.corrupt()
		return types.Chunk{}, false, types.CorruptPayloadError(c, err)
	}
	return types.Chunk{
		Coord:     c,
		Scheme:    raw.Scheme,
		Timestamp: raw.Timestamp,
		Data:      data,
	}, true, nil
}

// GetEnvelope reads the chunk at c without decompressing it.
func (r *Region) GetEnvelope(c types.Coord) (types.RawChunk, bool, error) {
	if err := r.usable(); err != nil {
		return types.RawChunk{}, false, err
	}
	if err := checkCoord(c); err != nil {
		return types.RawChunk{}, false, err
	}
	rec, ok := r.dir.Get(c)
	if !ok {
		return types.RawChunk{}, false, nil
	}

	buf := make([]byte, rec.Run.Size())
	if _, err := r.f.ReadAt(buf, rec.Run.Offset()); err != nil {
		return types.RawChunk{}, false, types.IOError(fmt.Sprintf("read chunk %s run %s", c, rec.Run), err)
	}
	env, err := format.DecodeEnvelope(buf)
	if err != nil {
		r.metrics.corrupt()
		return types.RawChunk{}, false, types.CorruptPayloadError(c, err)
	}
	r.metrics.read()
	return types.RawChunk{
		Coord:     c,
		Scheme:    types.Scheme(env.Scheme),
		Timestamp: rec.Timestamp,
		Payload:   env.Payload,
	}, true, nil
}

// PutChunk compresses raw with scheme and stores it at c with timestamp ts.
//
// The existing run is reused when it is large enough, and its unneeded
// tail sectors are freed. Otherwise the old run is freed and a new one is
// allocated first-fit, growing the file if no gap fits. The header change
// is held in memory until FlushHeader.
//
// A payload needing more than 255 sectors fails with
// types.ErrPayloadTooLarge before anything is written.
func (r *Region) PutChunk(c types.Coord, raw []byte, scheme types.Scheme, ts types.Timestamp) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := checkCoord(c); err != nil {
		return err
	}
	payload, err := r.codec.Compress(scheme, raw)
	if err != nil {
		return fmt.Errorf("compress chunk %s: %w", c, err)
	}
	return r.putPayload(c, scheme, payload, ts)
}

// PutEnvelope stores an already compressed payload. It is the write side of
// GetEnvelope, used to copy chunks between files without recompressing.
func (r *Region) PutEnvelope(raw types.RawChunk) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := checkCoord(raw.Coord); err != nil {
		return err
	}
	return r.putPayload(raw.Coord, raw.Scheme, raw.Payload, raw.Timestamp)
}

func (r *Region) putPayload(c types.Coord, scheme types.Scheme, payload []byte, ts types.Timestamp) error {
	needed := format.EnvelopeSectors(len(payload))
	if needed > format.MaxSectorCount {
		return types.PayloadTooLargeError(c, len(payload), needed)
	}
	env, err := format.EncodeEnvelope(byte(scheme), payload)
	if err != nil {
		return types.PayloadTooLargeError(c, len(payload), needed)
	}

	old, had := r.dir.Get(c)
	startSectors := r.alloc.FileSectors()

	var run alloc.Range
	if had && int(old.Run.Count) >= needed {
		run, err = r.rewriteInPlace(c, alloc.RangeOf(old.Run), env, uint32(needed))
	} else {
		run, err = r.relocate(c, old, had, env, uint32(needed))
	}
	if err != nil {
		return err
	}

	r.dir.Set(c, run.Run(), ts)
	r.dt.AddSlot(c.Index())
	r.dt.MarkData()

	grown := r.alloc.FileSectors() - startSectors
	r.metrics.write(uint32(len(env)), run.Len(), grown)
	r.reportSpace()
	return nil
}

// rewriteInPlace overwrites the record's run and frees the sectors it no
// longer needs.
func (r *Region) rewriteInPlace(c types.Coord, cur alloc.Range, env []byte, needed uint32) (alloc.Range, error) {
	if _, err := r.f.WriteAt(env, format.SectorOffset(cur.Start)); err != nil {
		return alloc.Range{}, types.IOError(fmt.Sprintf("write chunk %s run %s", c, cur), err)
	}
	kept, err := r.alloc.Shrink(cur, needed)
	if err != nil {
		return alloc.Range{}, fmt.Errorf("shrink chunk %s: %w", c, err)
	}
	if kept != cur {
		r.log.Debug().Stringer("coord", c).Stringer("from", cur).Stringer("to", kept).Msg("shrink in place")
	}
	return kept, nil
}

// relocate frees the old run, if any, allocates a new one and writes env
// there. On failure the allocator and file length are restored.
func (r *Region) relocate(c types.Coord, old types.AllocationRecord, had bool, env []byte, needed uint32) (alloc.Range, error) {
	snap := r.alloc.Clone()
	size := r.f.Size()
	rollback := func() {
		r.alloc = snap
		if r.f.Size() > size {
			if err := r.f.Truncate(size); err != nil {
				r.log.Warn().Err(err).Int64("size", size).Msg("truncate after failed write")
			}
		}
	}

	if had {
		if err := r.alloc.Free(alloc.RangeOf(old.Run)); err != nil {
			return alloc.Range{}, fmt.Errorf("free chunk %s: %w", c, err)
		}
	}
	run, err := r.alloc.Allocate(needed)
	if err != nil {
		rollback()
		return alloc.Range{}, types.IOError(fmt.Sprintf("allocate %d sectors for chunk %s", needed, c), err)
	}
	if run.End > snap.FileSectors() {
		r.log.Debug().Stringer("coord", c).Stringer("run", run).
			Uint32("file_sectors", r.alloc.FileSectors()).Msg("file grown")
	}
	if _, err := r.f.WriteAt(env, format.SectorOffset(run.Start)); err != nil {
		rollback()
		return alloc.Range{}, types.IOError(fmt.Sprintf("write chunk %s run %s", c, run), err)
	}
	return run, nil
}

// DeleteChunk removes the chunk at c and frees its sectors. Deleting an
// empty slot does nothing.
func (r *Region) DeleteChunk(c types.Coord) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := checkCoord(c); err != nil {
		return err
	}
	rec, ok := r.dir.Get(c)
	if !ok {
		return nil
	}
	if err := r.alloc.Free(alloc.RangeOf(rec.Run)); err != nil {
		return fmt.Errorf("free chunk %s: %w", c, err)
	}
	r.dir.Clear(c)
	r.dt.AddSlot(c.Index())
	r.metrics.deleted()
	r.reportSpace()
	return nil
}
