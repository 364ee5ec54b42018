package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/pkg/region"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <region>",
		Short: "Create an empty region file",
		Long: `The create command writes a new region file holding only an empty
header (8192 bytes). It refuses to overwrite an existing file.

Example:
  regionctl create r.0.0.mca`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args)
		},
	}
}

func runCreate(args []string) error {
	opts, err := openOptions(false)
	if err != nil {
		return err
	}
	r, err := region.Create(args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to create region: %w", err)
	}
	if err := r.Close(); err != nil {
		return err
	}
	printInfo("Created %s\n", args[0])
	return nil
}
