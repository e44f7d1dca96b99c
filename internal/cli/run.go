package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loomlab/weft/internal/checkpoint"
	"github.com/loomlab/weft/internal/demo"
	"github.com/loomlab/weft/internal/runner"
	"github.com/loomlab/weft/internal/schedule"
	"github.com/loomlab/weft/internal/world"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Budget     int
	Count      int
	Database   string
	Checkpoint string
	Resume     bool

	// Tokens allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens runner.TokenGenerator
}

// RunSummary is the run command's output payload.
type RunSummary struct {
	Token    string `json:"token"`
	Reason   string `json:"reason"`
	Ticks    int    `json:"ticks"`
	NextTick int    `json:"next_tick"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo world to termination",
		Long: `Run the built-in demo world: a heartbeat system and a countdown
system ticking until the counter reaches zero or the budget runs out.

The final world state is checkpointed to a file and/or a SQLite store, and
--resume continues the latest checkpointed run from where it stopped.

Example:
  weft run --count 5
  weft run --budget 100 --db ./weft.db
  weft run --db ./weft.db --resume`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorld(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().IntVar(&opts.Budget, "budget", 0, "tick budget (0 = unbounded)")
	cmd.Flags().IntVar(&opts.Count, "count", 5, "starting value for the demo counter")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite checkpoint store")
	cmd.Flags().StringVar(&opts.Checkpoint, "checkpoint", "", "path to write the final checkpoint file")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "resume from the latest checkpoint")

	return cmd
}

func runWorld(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	registry := demo.Registry()
	codec := checkpoint.NewCodec(registry)

	var store *checkpoint.Store
	if cfg.Database != "" {
		store, err = checkpoint.Open(cfg.Database, codec)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open checkpoint store", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("error closing checkpoint store", "error", closeErr)
			}
		}()
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	w, startTick, err := buildWorld(ctx, opts, cfg, codec, store)
	if err != nil {
		return err
	}

	sched := schedule.New()
	for name, sys := range demo.Systems() {
		priority := 0
		if name == "countdown" {
			priority = 10
		}
		sched.Register(sys, priority)
	}

	runOpts := []runner.Option{
		runner.WithBudget(cfg.Budget),
		runner.WithStartTick(startTick),
	}
	if opts.Tokens != nil {
		runOpts = append(runOpts, runner.WithTokens(opts.Tokens))
	}

	res, err := runner.New(sched, runOpts...).Run(ctx, w)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("run interrupted", "ticks", res.Ticks)
			res.Reason = "interrupted"
		} else {
			return WrapExitError(ExitFailure, "run failed", err)
		}
	}

	if err := saveCheckpoint(cmd.Context(), cfg, codec, store, w, res); err != nil {
		return err
	}

	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	summary := RunSummary{
		Token:    res.Token,
		Reason:   string(res.Reason),
		Ticks:    res.Ticks,
		NextTick: res.NextTick,
	}
	return out.Successf(summary, "run %s stopped: %s after %d tick(s)",
		summary.Token, summary.Reason, summary.Ticks)
}

// resolveConfig merges the config file with command-line flags; explicitly
// set flags win.
func resolveConfig(opts *RunOptions, cmd *cobra.Command) (*Config, error) {
	cfg := &Config{}
	if opts.ConfigPath != "" {
		loaded, err := LoadConfig(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("budget") || cfg.Budget == 0 {
		cfg.Budget = opts.Budget
	}
	if cmd.Flags().Changed("count") || cfg.Count == 0 {
		cfg.Count = opts.Count
	}
	if cmd.Flags().Changed("db") || cfg.Database == "" {
		cfg.Database = opts.Database
	}
	if cmd.Flags().Changed("checkpoint") || cfg.Checkpoint == "" {
		cfg.Checkpoint = opts.Checkpoint
	}
	return cfg, nil
}

// buildWorld either restores the latest checkpoint or seeds a fresh demo
// world with one counter entity.
func buildWorld(ctx context.Context, opts *RunOptions, cfg *Config, codec *checkpoint.Codec, store *checkpoint.Store) (*world.World, int, error) {
	if !opts.Resume {
		w := world.New()
		world.Attach(w, w.CreateEntity(), &demo.Counter{Remaining: cfg.Count})
		return w, 0, nil
	}

	cp, err := loadLatest(ctx, cfg, codec, store)
	if err != nil {
		return nil, 0, err
	}
	w, err := codec.Restore(cp.World)
	if err != nil {
		return nil, 0, WrapExitError(ExitCommandError, "failed to restore checkpoint", err)
	}
	slog.Info("resumed from checkpoint", "token", cp.Token, "tick", cp.Tick)
	return w, cp.Tick, nil
}

func loadLatest(ctx context.Context, cfg *Config, codec *checkpoint.Codec, store *checkpoint.Store) (*checkpoint.Checkpoint, error) {
	if store != nil {
		cp, err := store.Latest(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load checkpoint", err)
		}
		return cp, nil
	}
	if cfg.Checkpoint != "" {
		cp, err := codec.LoadFile(cfg.Checkpoint)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load checkpoint", err)
		}
		return cp, nil
	}
	return nil, NewExitError(ExitCommandError, "--resume requires --db or --checkpoint")
}

// saveCheckpoint persists the final world state to every configured sink.
func saveCheckpoint(ctx context.Context, cfg *Config, codec *checkpoint.Codec, store *checkpoint.Store, w *world.World, res runner.Result) error {
	if cfg.Checkpoint == "" && store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	snap, err := codec.Snapshot(w)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to snapshot world", err)
	}
	cp := &checkpoint.Checkpoint{Token: res.Token, Tick: res.NextTick, World: snap}

	if cfg.Checkpoint != "" {
		if err := codec.SaveFile(cfg.Checkpoint, cp); err != nil {
			return WrapExitError(ExitFailure, "failed to write checkpoint file", err)
		}
		slog.Info("checkpoint written", "path", cfg.Checkpoint, "tick", cp.Tick)
	}
	if store != nil {
		if err := store.Save(ctx, cp); err != nil {
			return WrapExitError(ExitFailure, "failed to save checkpoint", err)
		}
		slog.Info("checkpoint saved", "token", cp.Token, "tick", cp.Tick)
	}
	return nil
}

// signalContext derives a context cancelled on SIGINT/SIGTERM, so a run can
// be interrupted and later resumed from its last checkpoint.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
