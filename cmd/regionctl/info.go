package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/region"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <region>",
		Short: "Report header metadata without opening for write",
		Long: `The info command maps the header of a region file read-only and
reports its size, chunk count and sector usage. It does not check the
layout; use validate for that.

Example:
  regionctl info r.0.0.mca
  regionctl info r.0.0.mca --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
}

type infoResult struct {
	File        string   `json:"file"`
	Size        int64    `json:"size"`
	Sectors     uint32   `json:"sectors"`
	Aligned     bool     `json:"aligned"`
	Chunks      int      `json:"chunks"`
	UsedSectors uint32   `json:"used_sectors"`
	FreeSectors uint32   `json:"free_sectors"`
	Problems    []string `json:"problems,omitempty"`
}

func runInfo(args []string) error {
	path := args[0]
	printVerbose("Inspecting region: %s\n", path)

	info, err := region.Inspect(path)
	if err != nil {
		return fmt.Errorf("failed to inspect region: %w", err)
	}

	present := info.Present()
	res := infoResult{
		File:        path,
		Size:        info.Size,
		Sectors:     info.Sectors(),
		Aligned:     info.IsSectorAligned(),
		Chunks:      present.Count(),
		UsedSectors: info.UsedSectors(),
	}
	// Overlapping runs can make UsedSectors exceed the data area.
	if res.Sectors >= 2+res.UsedSectors {
		res.FreeSectors = res.Sectors - 2 - res.UsedSectors
	}
	for _, p := range info.Problems {
		res.Problems = append(res.Problems, fmt.Sprintf("slot %d: %s", p.Slot, p.Reason))
	}

	if jsonOut {
		return printJSON(res)
	}

	printInfo("\nRegion Information:\n")
	printInfo("  File: %s\n", path)
	printInfo("  %s\n", numbers.Sprintf("Size: %d bytes (%d sectors)", res.Size, res.Sectors))
	if !res.Aligned {
		printInfo("  ! Trailing partial sector\n")
	}
	printInfo("  %s\n", numbers.Sprintf("Chunks: %d of 1024", res.Chunks))
	printInfo("  %s\n", numbers.Sprintf("Used sectors: %d", res.UsedSectors))
	printInfo("  %s\n", numbers.Sprintf("Free sectors: %d", res.FreeSectors))
	if len(res.Problems) > 0 {
		printInfo("\nHeader problems:\n")
		for _, p := range res.Problems {
			printInfo("  ✗ %s\n", p)
		}
	}
	return nil
}
