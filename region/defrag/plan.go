package defrag

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joshuapare/regionkit/internal/format"
	"github.com/joshuapare/regionkit/pkg/types"
)

// ErrNoSpace indicates compaction around pinned runs ran out of addressable sectors.
var ErrNoSpace = errors.New("defrag: no addressable space for run")

// Placement moves one record from its current run to a target run of the
// same length.
type Placement struct {
	Coord     types.Coord
	From      types.SectorRun
	To        types.SectorRun
	Timestamp types.Timestamp
}

// Moved reports whether the record changes position.
func (p Placement) Moved() bool { return p.From.Start != p.To.Start }

// Layout is the complete target arrangement of a region file.
type Layout struct {
	// Placements holds one entry per occupied slot, in ascending target start.
	Placements []Placement

	// FileSectors is the target file length in sectors, header included.
	FileSectors uint32
}

// Moved returns how many records change position.
func (l *Layout) Moved() int {
	n := 0
	for _, p := range l.Placements {
		if p.Moved() {
			n++
		}
	}
	return n
}

// Compact computes the gap-free layout of records: ascending current start,
// packed from sector 2.
func Compact(records []types.AllocationRecord) *Layout {
	l, _ := Plan(records, nil, true)
	return l
}

// Plan computes the target layout of records under plan.
//
// A nil or empty plan with compact set is plain compaction. A plan without
// compact moves only the listed records. A plan with compact pins the listed
// records and packs the rest into the lowest gaps that fit.
//
// An invalid plan returns a *types.PlanError listing every problem found.
func Plan(records []types.AllocationRecord, plan *types.RelocationPlan, compact bool) (*Layout, error) {
	pinned, err := validate(records, plan, compact)
	if err != nil {
		return nil, err
	}

	sorted := make([]types.AllocationRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Run.Start < sorted[j].Run.Start })

	l := &Layout{Placements: make([]Placement, 0, len(sorted))}
	var occupied []types.SectorRun
	var rest []types.AllocationRecord

	for _, rec := range sorted {
		to, ok := pinned[rec.Coord]
		switch {
		case ok:
		case !compact:
			to = rec.Run.Start
		default:
			rest = append(rest, rec)
			continue
		}
		run := types.SectorRun{Start: to, Count: rec.Run.Count}
		l.Placements = append(l.Placements, Placement{Coord: rec.Coord, From: rec.Run, To: run, Timestamp: rec.Timestamp})
		occupied = append(occupied, run)
	}

	sortRuns(occupied)
	for _, rec := range rest {
		start, err := lowestGap(occupied, rec.Run.Count)
		if err != nil {
			return nil, fmt.Errorf("%w: %s needs %d sectors", err, rec.Coord, rec.Run.Count)
		}
		run := types.SectorRun{Start: start, Count: rec.Run.Count}
		l.Placements = append(l.Placements, Placement{Coord: rec.Coord, From: rec.Run, To: run, Timestamp: rec.Timestamp})
		occupied = insertRun(occupied, run)
	}

	sort.SliceStable(l.Placements, func(i, j int) bool { return l.Placements[i].To.Start < l.Placements[j].To.Start })

	l.FileSectors = format.HeaderSectors
	for _, p := range l.Placements {
		l.FileSectors = max(l.FileSectors, p.To.End())
	}
	return l, nil
}

// validate checks plan against records and returns the pinned target start
// of every moved coordinate. Without compaction the records that stay put
// take part in the overlap check; with compaction they are repacked and
// only pinned runs must be disjoint.
func validate(records []types.AllocationRecord, plan *types.RelocationPlan, compact bool) (map[types.Coord]uint32, error) {
	pinned := map[types.Coord]uint32{}
	if plan == nil || len(plan.Moves) == 0 {
		return pinned, nil
	}

	byCoord := make(map[types.Coord]types.AllocationRecord, len(records))
	for _, r := range records {
		byCoord[r.Coord] = r
	}

	var problems []types.PlanProblem
	bad := func(c types.Coord, msg string, args ...any) {
		problems = append(problems, types.PlanProblem{Coord: c, Reason: fmt.Sprintf(msg, args...)})
	}

	for _, m := range plan.Moves {
		if !m.Coord.Valid() {
			bad(m.Coord, "coordinate out of range")
			continue
		}
		rec, ok := byCoord[m.Coord]
		if !ok {
			bad(m.Coord, "slot is empty")
			continue
		}
		if _, dup := pinned[m.Coord]; dup {
			bad(m.Coord, "listed more than once")
			continue
		}
		if m.Start < format.FirstDataSector {
			bad(m.Coord, "start sector %d is inside the header", m.Start)
			continue
		}
		if uint64(m.Start)+uint64(rec.Run.Count) > format.SectorLimit {
			bad(m.Coord, "run [%d,%d) exceeds addressable sectors", m.Start, uint64(m.Start)+uint64(rec.Run.Count))
			continue
		}
		pinned[m.Coord] = m.Start
	}

	type slotRun struct {
		c     types.Coord
		run   types.SectorRun
		moved bool
	}
	final := make([]slotRun, 0, len(records))
	for _, r := range records {
		if start, ok := pinned[r.Coord]; ok {
			final = append(final, slotRun{r.Coord, types.SectorRun{Start: start, Count: r.Run.Count}, true})
		} else if !compact {
			final = append(final, slotRun{r.Coord, r.Run, false})
		}
	}
	sort.SliceStable(final, func(i, j int) bool { return final[i].run.Start < final[j].run.Start })

	// Sweep keeping the run that reaches furthest; unmoved runs never
	// overlap each other, so every collision involves a moved run.
	for i, far := 1, 0; i < len(final); i++ {
		cur, prev := final[i], final[far]
		if cur.run.Start < prev.run.End() {
			who, other := cur, prev
			if !cur.moved {
				who, other = prev, cur
			}
			bad(who.c, "target %s overlaps %s at %s", who.run, other.c, other.run)
		}
		if cur.run.End() > prev.run.End() {
			far = i
		}
	}

	if len(problems) > 0 {
		return nil, &types.PlanError{Problems: problems}
	}
	return pinned, nil
}

// lowestGap returns the lowest start ≥ sector 2 where count sectors fit
// between the sorted, disjoint runs in occupied.
func lowestGap(occupied []types.SectorRun, count uint8) (uint32, error) {
	cursor := uint32(format.FirstDataSector)
	for _, r := range occupied {
		if r.Start >= cursor+uint32(count) {
			return cursor, nil
		}
		cursor = max(cursor, r.End())
	}
	if cursor > format.MaxSectorStart || uint64(cursor)+uint64(count) > format.SectorLimit {
		return 0, ErrNoSpace
	}
	return cursor, nil
}

func sortRuns(runs []types.SectorRun) {
	sort.Slice(runs, func(i, j int) bool { return runs[i].Start < runs[j].Start })
}

func insertRun(runs []types.SectorRun, r types.SectorRun) []types.SectorRun {
	i := sort.Search(len(runs), func(k int) bool { return runs[k].Start >= r.Start })
	runs = append(runs, types.SectorRun{})
	copy(runs[i+1:], runs[i:])
	runs[i] = r
	return runs
}
