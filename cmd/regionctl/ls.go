package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/pkg/region"
)

var lsOrder string

func init() {
	cmd := newLsCmd()
	cmd.Flags().StringVar(&lsOrder, "order", "slot", "Sort order (slot, sector)")
	rootCmd.AddCommand(cmd)
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <region>",
		Short: "List the chunks in a region file",
		Long: `The ls command lists every occupied slot with its sector run and
timestamp. Slots dropped because of header problems are reported after
the listing.

Example:
  regionctl ls r.0.0.mca
  regionctl ls r.0.0.mca --order sector --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(args)
		},
	}
}

type lsEntry struct {
	X         int       `json:"x"`
	Z         int       `json:"z"`
	Slot      int       `json:"slot"`
	Start     uint32    `json:"start"`
	Count     uint8     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func runLs(args []string) error {
	opts, err := openOptions(true)
	if err != nil {
		return err
	}
	r, err := region.Open(args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to open region: %w", err)
	}
	defer r.Close()

	recs := r.Snapshot()
	switch lsOrder {
	case "slot":
	case "sector":
		recs = r.Records()
	default:
		return fmt.Errorf("unknown order: %s (must be slot or sector)", lsOrder)
	}

	entries := make([]lsEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, lsEntry{
			X:         rec.Coord.X,
			Z:         rec.Coord.Z,
			Slot:      rec.Coord.Index(),
			Start:     rec.Run.Start,
			Count:     rec.Run.Count,
			Timestamp: rec.Timestamp.Time(),
		})
	}

	if jsonOut {
		return printJSON(entries)
	}

	printInfo("%-10s %5s %10s %6s  %s\n", "COORD", "SLOT", "START", "COUNT", "MODIFIED")
	for _, e := range entries {
		printInfo("%-10s %5d %10d %6d  %s\n",
			fmt.Sprintf("%d,%d", e.X, e.Z), e.Slot, e.Start, e.Count, e.Timestamp.Format(time.RFC3339))
	}
	printInfo("\n%s\n", numbers.Sprintf("%d chunks, %d of %d sectors free", len(entries), r.FreeSectors(), r.FileSectors()))
	for _, is := range r.Issues() {
		printInfo("  ✗ %s\n", is)
	}
	return nil
}
