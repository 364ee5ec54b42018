package region

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuapare/regionkit/internal/writer"
	"github.com/joshuapare/regionkit/pkg/types"
	rf "github.com/joshuapare/regionkit/region"
	"github.com/joshuapare/regionkit/region/defrag"
)

// Optimize rewrites the region without free gaps, or into the arrangement
// given by opts.Plan, and returns what changed. A nil opts compacts.
//
// The new file is written and synced next to the original and then renamed
// over it. Until the rename the original is untouched, so a failure or crash
// leaves it exactly as it was. Payload bytes and timestamps are copied
// verbatim. Unflushed puts and deletes are included in the new file.
//
// A plan that moves an empty slot, lists a slot twice, targets the header
// or makes runs overlap fails with a *types.PlanError before anything is
// written.
func (r *Region) Optimize(ctx context.Context, opts *OptimizeOptions) (defrag.Result, error) {
	if err := r.writable(); err != nil {
		return defrag.Result{}, err
	}
	if opts == nil {
		opts = DefaultOptimizeOptions()
	}

	layout, err := defrag.Plan(r.dir.Records(), opts.Plan, opts.Compact)
	if err != nil {
		if errors.Is(err, defrag.ErrNoSpace) {
			return defrag.Result{}, &types.Error{Kind: types.ErrKindInvalidPlan, Msg: "compact around planned runs", Err: err}
		}
		return defrag.Result{}, err
	}

	af, err := writer.CreateAtomic(r.path)
	if err != nil {
		return defrag.Result{}, types.IOError("optimize "+r.path, err)
	}
	defer func() { _ = af.Abort() }()

	res, err := defrag.Rewrite(ctx, r.f, af, r.dir.Header(), layout, r.alloc.FileSectors())
	if err != nil {
		return res, err
	}
	if err := af.Sync(); err != nil {
		return res, types.IOError("sync optimized file", err)
	}
	if r.beforeRename != nil {
		if err := r.beforeRename(); err != nil {
			return res, err
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := af.Commit(); err != nil {
		if !af.Renamed() {
			return res, types.IOError("replace "+r.path, err)
		}
		// The new file is in place; only the directory sync failed.
		r.log.Warn().Err(err).Msg("optimized file renamed but directory sync failed")
	}

	if err := r.f.Close(); err != nil {
		r.log.Warn().Err(err).Msg("close replaced file")
	}
	if err := r.reload(); err != nil {
		return res, err
	}

	r.metrics.optimized(res.Reclaimed())
	r.log.Info().
		Int("records", res.Records).
		Int("moved", res.Moved).
		Uint32("old_sectors", res.OldSectors).
		Uint32("new_sectors", res.NewSectors).
		Msg("optimized")
	return res, nil
}

// reload reopens the region from disk after its file was replaced. On
// failure the region is left closed.
func (r *Region) reload() error {
	f, err := rf.Open(r.path, false)
	if err != nil {
		r.closed = true
		return openError(r.path, err)
	}
	nr, err := load(r.path, f, &r.opts)
	if err != nil {
		_ = f.Close()
		r.closed = true
		return fmt.Errorf("reload optimized file: %w", err)
	}
	nr.beforeRename = r.beforeRename
	*r = *nr
	return nil
}
