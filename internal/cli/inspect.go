package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomlab/weft/internal/checkpoint"
	"github.com/loomlab/weft/internal/demo"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	Run      string
	List     bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [checkpoint-file]",
		Short: "Show a saved checkpoint",
		Long: `Show the contents of a checkpoint: the run token, the tick to resume
from, and every entity with its components.

Reads from a checkpoint file given as the argument, or from a SQLite store
given with --db (the latest checkpoint, or the latest for --run).

Example:
  weft inspect ./final.json
  weft inspect --db ./weft.db
  weft inspect --db ./weft.db --run 0190cafe-...
  weft inspect --db ./weft.db --list`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite checkpoint store")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run token to inspect (latest checkpoint for that run)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list all checkpoints in the store")

	return cmd
}

func inspect(opts *InspectOptions, cmd *cobra.Command, args []string) error {
	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	codec := checkpoint.NewCodec(demo.Registry())

	if opts.Database != "" {
		store, err := checkpoint.Open(opts.Database, codec)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open checkpoint store", err)
		}
		defer store.Close()
		return inspectStore(cmd.Context(), opts, out, store)
	}

	if len(args) == 0 {
		return NewExitError(ExitCommandError, "provide a checkpoint file or --db")
	}
	cp, err := codec.LoadFile(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load checkpoint", err)
	}
	return printCheckpoint(out, cp)
}

func inspectStore(ctx context.Context, opts *InspectOptions, out *OutputFormatter, store *checkpoint.Store) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.List {
		metas, err := store.List(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list checkpoints", err)
		}
		if out.Format == "json" {
			return out.Success(metas)
		}
		for _, m := range metas {
			fmt.Fprintf(out.Writer, "%s tick=%d\n", m.RunToken, m.Tick)
		}
		return nil
	}

	var (
		cp  *checkpoint.Checkpoint
		err error
	)
	if opts.Run != "" {
		cp, err = store.LatestForRun(ctx, opts.Run)
	} else {
		cp, err = store.Latest(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load checkpoint", err)
	}
	return printCheckpoint(out, cp)
}

func printCheckpoint(out *OutputFormatter, cp *checkpoint.Checkpoint) error {
	if out.Format == "json" {
		return out.Success(cp)
	}

	fmt.Fprintf(out.Writer, "run:  %s\n", cp.Token)
	fmt.Fprintf(out.Writer, "tick: %d\n", cp.Tick)
	fmt.Fprintf(out.Writer, "last entity id: %d\n", cp.World.LastEntityID)
	for _, ent := range cp.World.Entities {
		names := make([]string, 0, len(ent.Components))
		for name := range ent.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(out.Writer, "entity %d: %s\n", ent.ID, strings.Join(names, ", "))
		if out.Verbose {
			for _, name := range names {
				fmt.Fprintf(out.Writer, "  %s: %s\n", name, compactJSON(ent.Components[name]))
			}
		}
	}
	return nil
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
