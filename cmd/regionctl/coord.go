package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/regionkit/pkg/types"
)

// parseCoord parses "x,z". With wrap set, absolute chunk coordinates are
// reduced to their slot in the region.
func parseCoord(s string, wrap bool) (types.Coord, error) {
	xs, zs, ok := strings.Cut(s, ",")
	if !ok {
		return types.Coord{}, fmt.Errorf("coordinate %q: want x,z", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return types.Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	z, err := strconv.Atoi(strings.TrimSpace(zs))
	if err != nil {
		return types.Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	if wrap {
		return types.WrapCoord(x, z), nil
	}
	return types.NewCoord(x, z)
}
