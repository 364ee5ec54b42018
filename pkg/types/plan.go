package types

import "fmt"

// Move relocates one chunk's run to start at a new sector.
type Move struct {
	Coord Coord  `json:"coord"`
	Start uint32 `json:"start"`
}

// RelocationPlan is a caller-supplied rearrangement of chunk runs. Run
// lengths never change; only start sectors do.
type RelocationPlan struct {
	Moves []Move `json:"moves"`
}

// PlanProblem is one reason a plan was rejected.
type PlanProblem struct {
	Coord  Coord
	Reason string
}

func (p PlanProblem) String() string {
	return fmt.Sprintf("%s: %s", p.Coord, p.Reason)
}
