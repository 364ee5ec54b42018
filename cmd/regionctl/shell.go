package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/joshuapare/regionkit/pkg/region"
	"github.com/joshuapare/regionkit/pkg/types"
)

var errExitShell = errors.New("exit")

func init() {
	rootCmd.AddCommand(newShellCmd())
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell <region>",
		Short: "Edit a region file interactively",
		Long: `The shell command opens a region file (creating it if needed) and
reads commands from stdin, one per line, with shell-style quoting. The
header is flushed on flush and on exit; changes are discarded on end of
input without exit.

Commands:
  ls                        list chunks
  get <x,z> [file]          print size or write payload to file
  put <x,z> <file> [scheme] store a file as a chunk
  rm <x,z>...               delete chunks
  free                      list free sector ranges
  flush                     write the header
  optimize                  compact the file
  exit | quit               flush and leave

Example:
  regionctl shell r.0.0.mca`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runShell(ctx, args[0], cmd.InOrStdin(), os.Stdout)
		},
	}
}

// shell holds one interactive session.
type shell struct {
	r   *region.Region
	out io.Writer
}

func runShell(ctx context.Context, path string, in io.Reader, out io.Writer) error {
	opts, err := openOptions(false)
	if err != nil {
		return err
	}
	r, err := region.OpenOrCreate(path, opts)
	if err != nil {
		return fmt.Errorf("failed to open region: %w", err)
	}
	defer r.Close()

	sh := &shell{r: r, out: out}
	fmt.Fprintf(out, "Opened %s (%d chunks). Type 'exit' to flush and quit.\n", path, r.Len())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			if r.Dirty() {
				fmt.Fprintln(out, "unflushed changes discarded")
			}
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintln(out, "parse error:", err)
			continue
		}
		err = sh.exec(ctx, words)
		if errors.Is(err, errExitShell) {
			return r.FlushHeader(ctx)
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

func (sh *shell) exec(ctx context.Context, words []string) error {
	cmd, args := words[0], words[1:]
	switch cmd {
	case "exit", "quit":
		return errExitShell
	case "ls":
		for _, rec := range sh.r.Snapshot() {
			fmt.Fprintf(sh.out, "%d,%d\t%s\t%s\n", rec.Coord.X, rec.Coord.Z, rec.Run, rec.Timestamp.Time().Format(time.RFC3339))
		}
		return nil
	case "free":
		for _, fr := range sh.r.FreeRanges() {
			fmt.Fprintln(sh.out, fr)
		}
		fmt.Fprintf(sh.out, "%d of %d sectors free\n", sh.r.FreeSectors(), sh.r.FileSectors())
		return nil
	case "get":
		return sh.get(args)
	case "put":
		return sh.put(args)
	case "rm":
		for _, a := range args {
			c, err := parseCoord(a, false)
			if err != nil {
				return err
			}
			if err := sh.r.DeleteChunk(c); err != nil {
				return err
			}
		}
		return nil
	case "flush":
		return sh.r.FlushHeader(ctx)
	case "optimize":
		res, err := sh.r.Optimize(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%d chunks, %d moved, %d → %d sectors\n", res.Records, res.Moved, res.OldSectors, res.NewSectors)
		return nil
	case "help":
		fmt.Fprintln(sh.out, "commands: ls, get, put, rm, free, flush, optimize, exit")
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (sh *shell) get(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: get <x,z> [file]")
	}
	c, err := parseCoord(args[0], false)
	if err != nil {
		return err
	}
	ch, ok, err := sh.r.GetChunk(c)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chunk %s not found", c)
	}
	if len(args) == 2 {
		return os.WriteFile(args[1], ch.Data, 0o644)
	}
	fmt.Fprintf(sh.out, "%s: %d bytes, %s, %s\n", c, len(ch.Data), ch.Scheme, ch.Timestamp.Time().Format(time.RFC3339))
	return nil
}

func (sh *shell) put(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: put <x,z> <file> [scheme]")
	}
	c, err := parseCoord(args[0], false)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	scheme, err := cfg.scheme()
	if len(args) == 3 {
		scheme, err = types.ParseScheme(args[2])
	}
	if err != nil {
		return err
	}
	return sh.r.PutChunk(c, data, scheme, types.Now())
}
