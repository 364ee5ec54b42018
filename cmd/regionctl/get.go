package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/pkg/region"
)

var (
	getOut  string
	getRaw  bool
	getWrap bool
)

func init() {
	cmd := newGetCmd()
	cmd.Flags().StringVarP(&getOut, "out", "o", "", "Write the chunk to a file instead of stdout")
	cmd.Flags().BoolVar(&getRaw, "raw", false, "Output the compressed payload without decompressing")
	cmd.Flags().BoolVar(&getWrap, "world", false, "Treat the coordinate as an absolute chunk coordinate")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <region> <x,z>",
		Short: "Read one chunk",
		Long: `The get command reads the chunk at x,z and writes its decompressed
payload to stdout or to --out.

Example:
  regionctl get r.0.0.mca 3,7 --out chunk.nbt
  regionctl get r.0.0.mca 3,7 --raw > chunk.zlib
  regionctl get r.-1.0.mca -29,7 --world --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
}

func runGet(args []string) error {
	c, err := parseCoord(args[1], getWrap)
	if err != nil {
		return err
	}
	opts, err := openOptions(true)
	if err != nil {
		return err
	}
	r, err := region.Open(args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to open region: %w", err)
	}
	defer r.Close()

	raw, ok, err := r.GetEnvelope(c)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chunk %s not found", c)
	}
	data := raw.Payload
	if !getRaw {
		ch, _, err := r.GetChunk(c)
		if err != nil {
			return err
		}
		data = ch.Data
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"x":         c.X,
			"z":         c.Z,
			"scheme":    raw.Scheme.String(),
			"timestamp": raw.Timestamp.Time(),
			"size":      len(data),
			"data":      data,
		})
	}
	if getOut != "" {
		if err := os.WriteFile(getOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		printVerbose("Wrote %d bytes to %s\n", len(data), getOut)
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}
