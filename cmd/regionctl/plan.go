package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/regionkit/pkg/types"
)

// planFile is the YAML form of a relocation plan:
//
//	moves:
//	  - {x: 0, z: 0, start: 40}
//	  - {x: 3, z: 1, start: 2}
type planFile struct {
	Moves []struct {
		X     int    `yaml:"x"`
		Z     int    `yaml:"z"`
		Start uint32 `yaml:"start"`
	} `yaml:"moves"`
}

// loadPlan reads a relocation plan from a YAML file.
func loadPlan(path string) (*types.RelocationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}
	plan := &types.RelocationPlan{Moves: make([]types.Move, 0, len(pf.Moves))}
	for _, m := range pf.Moves {
		plan.Moves = append(plan.Moves, types.Move{Coord: types.Coord{X: m.X, Z: m.Z}, Start: m.Start})
	}
	return plan, nil
}
