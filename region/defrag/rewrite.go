package defrag

import (
	"context"
	"fmt"
	"io"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/internal/writer"
	"github.com/joshuapare/regionkit/pkg/types"
)

// Result summarizes a completed rewrite.
type Result struct {
	Moved      int    // records whose start sector changed
	Records    int    // records copied
	OldSectors uint32 // source file length in sectors
	NewSectors uint32 // destination file length in sectors
}

// Reclaimed returns how many sectors the rewrite removed (zero if it grew).
func (r Result) Reclaimed() uint32 {
	if r.NewSectors >= r.OldSectors {
		return 0
	}
	return r.OldSectors - r.NewSectors
}

// Rewrite writes layout into dst: every record's run is copied verbatim from
// src, and a header built from base with each slot pointed at its target is
// written last. Slots not in layout keep base's timestamp with an empty run.
//
// dst is sized to layout.FileSectors before any copy. The context is checked
// between records.
func Rewrite(ctx context.Context, src io.ReaderAt, dst writer.Sink, base format.Header, layout *Layout, oldSectors uint32) (Result, error) {
	res := Result{OldSectors: oldSectors, NewSectors: layout.FileSectors}

	if err := dst.Truncate(format.SectorOffset(layout.FileSectors)); err != nil {
		return res, fmt.Errorf("size destination: %w", err)
	}

	hdr := base
	for slot := range hdr.Entries {
		if !hdr.Entries[slot].IsEmpty() {
			hdr.Entries[slot] = format.Entry{Timestamp: hdr.Entries[slot].Timestamp}
		}
	}

	buf := make([]byte, 0, format.MaxSectorCount*format.SectorSize)
	for _, p := range layout.Placements {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		buf = buf[:p.From.Size()]
		if _, err := src.ReadAt(buf, p.From.Offset()); err != nil {
			return res, types.IOError(fmt.Sprintf("read %s run %s", p.Coord, p.From), err)
		}
		if _, err := dst.WriteAt(buf, p.To.Offset()); err != nil {
			return res, types.IOError(fmt.Sprintf("write %s run %s", p.Coord, p.To), err)
		}
		hdr.Entries[p.Coord.Index()] = format.Entry{
			Start:     p.To.Start,
			Count:     p.To.Count,
			Timestamp: uint32(p.Timestamp),
		}
		res.Records++
		if p.Moved() {
			res.Moved++
		}
	}

	b, err := hdr.MarshalBinary()
	if err != nil {
		return res, err
	}
	if _, err := dst.WriteAt(b, 0); err != nil {
		return res, types.IOError("write header", err)
	}
	return res, nil
}
