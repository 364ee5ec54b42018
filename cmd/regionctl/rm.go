package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/pkg/region"
	"github.com/joshuapare/regionkit/pkg/types"
)

var rmWrap bool

func init() {
	cmd := newRmCmd()
	cmd.Flags().BoolVar(&rmWrap, "world", false, "Treat coordinates as absolute chunk coordinates")
	rootCmd.AddCommand(cmd)
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <region> <x,z>...",
		Short: "Delete chunks",
		Long: `The rm command deletes the chunks at the given coordinates and
flushes the header. Empty slots are ignored. Freed sectors stay in the
file until optimize.

Example:
  regionctl rm r.0.0.mca 3,7 4,7`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd.Context(), args)
		},
	}
}

func runRm(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	coords := make([]types.Coord, 0, len(args)-1)
	for _, a := range args[1:] {
		c, err := parseCoord(a, rmWrap)
		if err != nil {
			return err
		}
		coords = append(coords, c)
	}

	opts, err := openOptions(false)
	if err != nil {
		return err
	}
	r, err := region.Open(args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to open region: %w", err)
	}
	defer r.Close()

	removed := 0
	for _, c := range coords {
		if !r.Has(c) {
			printVerbose("%s is empty\n", c)
			continue
		}
		if err := r.DeleteChunk(c); err != nil {
			return err
		}
		removed++
	}
	if err := r.FlushHeader(ctx); err != nil {
		return err
	}
	printInfo("Removed %d chunk(s)\n", removed)
	return nil
}
