package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/region/verify"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <region>",
		Short: "Check a region file's layout invariants",
		Long: `The validate command checks that a region file is whole sectors,
that every header entry is well formed, that no two runs overlap or run
past end of file, and that every stored envelope fits its run exactly.
It exits non-zero if any problem is found.

Example:
  regionctl validate r.0.0.mca
  regionctl validate r.0.0.mca --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
}

func runValidate(args []string) error {
	path := args[0]
	printVerbose("Validating region: %s\n", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open region: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	problems := verify.Check(f, st.Size())

	if jsonOut {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			msgs = append(msgs, p.Error())
		}
		if err := printJSON(map[string]interface{}{
			"file":     path,
			"valid":    len(problems) == 0,
			"problems": msgs,
		}); err != nil {
			return err
		}
	} else {
		printInfo("\nValidating %s...\n\n", path)
		if len(problems) == 0 {
			printInfo("  ✓ Layout valid\n")
		}
		for _, p := range problems {
			printInfo("  ✗ %s\n", p)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found in %s", len(problems), path)
	}
	return nil
}
