package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/pkg/region"
	"github.com/joshuapare/regionkit/pkg/types"
)

var (
	putIn        string
	putScheme    string
	putTimestamp int64
	putWrap      bool
	putCreate    bool
)

func init() {
	cmd := newPutCmd()
	cmd.Flags().StringVarP(&putIn, "in", "i", "-", "Read the chunk from a file (- for stdin)")
	cmd.Flags().StringVar(&putScheme, "scheme", "", "Compression scheme (gzip, zlib, none); default from config")
	cmd.Flags().Int64Var(&putTimestamp, "timestamp", 0, "Modification time in unix seconds (default: now)")
	cmd.Flags().BoolVar(&putWrap, "world", false, "Treat the coordinate as an absolute chunk coordinate")
	cmd.Flags().BoolVar(&putCreate, "create", false, "Create the region file if it does not exist")
	rootCmd.AddCommand(cmd)
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <region> <x,z>",
		Short: "Write one chunk",
		Long: `The put command compresses a payload, stores it at x,z and flushes
the header.

Example:
  regionctl put r.0.0.mca 3,7 --in chunk.nbt
  cat chunk.nbt | regionctl put r.0.0.mca 3,7 --scheme gzip`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd.Context(), args)
		},
	}
}

func runPut(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := parseCoord(args[1], putWrap)
	if err != nil {
		return err
	}
	scheme, err := cfg.scheme()
	if putScheme != "" {
		scheme, err = types.ParseScheme(putScheme)
	}
	if err != nil {
		return err
	}
	ts := types.Now()
	if putTimestamp != 0 {
		ts = types.Timestamp(putTimestamp)
	}

	data, err := readInput(putIn)
	if err != nil {
		return err
	}

	opts, err := openOptions(false)
	if err != nil {
		return err
	}
	open := region.Open
	if putCreate {
		open = region.OpenOrCreate
	}
	r, err := open(args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to open region: %w", err)
	}
	defer r.Close()

	if err := r.PutChunk(c, data, scheme, ts); err != nil {
		return err
	}
	if err := r.FlushHeader(ctx); err != nil {
		return err
	}
	rec, _ := r.Record(c)
	printVerbose("Stored %d bytes at %s in sectors %s\n", len(data), c, rec.Run)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
