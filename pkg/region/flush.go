package region

import (
	"context"
	"fmt"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
)

// FlushHeader makes every put and delete since the last flush durable.
//
// Data sectors are synced before the header is written, so a crash at any
// point leaves either the previous header or the new one on disk, and the
// new one never points at unsynced data. Only the header pages that changed
// are written. FlushHeader is a no-op when nothing changed.
func (r *Region) FlushHeader(ctx context.Context) error {
	if err := r.writable(); err != nil {
		return err
	}
	h := r.dir.Header()
	if err := r.tx.Commit(ctx, format.SerializeHeader(&h)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("flush header: %w", err)
		}
		return types.IOError("flush header", err)
	}
	r.log.Debug().Int("commits", r.tx.Commits()).Msg("header flushed")
	return nil
}
