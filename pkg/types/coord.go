package types

import "fmt"

// GridSize is the number of slots along each axis of a region.
const GridSize = 32

// SlotCount is the number of slots in a region.
const SlotCount = GridSize * GridSize

// Coord identifies a slot in the 32×32 grid of a region file. It names a
// slot, not a guarantee that the slot is occupied.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Z int `json:"z" yaml:"z"`
}

// NewCoord validates x and z against the grid bounds.
func NewCoord(x, z int) (Coord, error) {
	c := Coord{X: x, Z: z}
	if !c.Valid() {
		return Coord{}, fmt.Errorf("%w: (%d, %d)", ErrCoordRange, x, z)
	}
	return c, nil
}

// WrapCoord normalizes absolute (world) chunk coordinates to the slot they
// occupy within their region, so (32, -1) becomes (0, 31).
func WrapCoord(x, z int) Coord {
	return Coord{X: x & (GridSize - 1), Z: z & (GridSize - 1)}
}

// CoordFromIndex returns the coordinate of a row-major slot index.
func CoordFromIndex(i int) Coord {
	return Coord{X: i % GridSize, Z: i / GridSize}
}

// Valid reports whether c lies inside the grid.
func (c Coord) Valid() bool {
	return c.X >= 0 && c.X < GridSize && c.Z >= 0 && c.Z < GridSize
}

// Index returns the row-major slot index: x varies fastest.
func (c Coord) Index() int {
	return c.Z*GridSize + c.X
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Z)
}
