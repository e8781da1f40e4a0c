package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"lukechampine.com/frand"

	"github.com/CPSCourse-TUM-HN/connecTUM/config"
	"github.com/CPSCourse-TUM-HN/connecTUM/engine"
)

var (
	cfg         = config.DefaultConfig()
	metricsAddr string

	rootCmd = &cobra.Command{
		Use:   "connectum",
		Short: "A four-in-a-row engine with tiered difficulty",
		Long: `connectum chooses moves for a four-in-a-row robot. It plays from a
terminal, precomputes its position cache, pits tiers against each other
and can act as an external exact solver.`,
		Version:           GitVersion,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Play against the engine in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Fill the position cache by playing every short opponent line",
		Args:  cobra.NoArgs,
		RunE:  runTrain,
	}

	arenaCmd = &cobra.Command{
		Use:   "arena",
		Short: "Play two tiers against each other and report the result",
		Args:  cobra.NoArgs,
		RunE:  runArena,
	}

	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Answer exact solver requests on stdin, one per line",
		Long: `solve reads "<rows> <cols> <key> <mover>" lines on stdin and prints
one score per column for each. Point solver-command at "connectum solve"
to run the solver in a separate process.`,
		Args: cobra.NoArgs,
		RunE: runSolve,
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Play games from observed boards read on stdin",
		Long: `watch reads one observed board per line, rows top first separated by
spaces ("....... ....... ....... ....... ....... ...X..."), and answers
with the engine's column. The game runs in an isolated worker; "new"
starts another game.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	rootCmd.PersistentFlags().AddFlagSet(config.Flags("connectum"))
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "",
		"serve prometheus metrics on this address, e.g. :9090")
	initShellFlags()
	initArenaFlags()
	initWatchFlags()
	rootCmd.AddCommand(shellCmd, trainCmd, arenaCmd, solveCmd, watchCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := cfg.LoadFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if ex, err := os.Executable(); err == nil {
		cfg.AdjustRelativePaths(filepath.Dir(ex))
	}
	ctx := setupLogging(cmd.Context(), cfg.GetBool(config.ConfigDebug))
	cmd.SetContext(ctx)
	log.Debug().Interface("settings", cfg.SanitizedSettings()).Msg("loaded-config")
	return nil
}

// newEngine builds the engine, serving its metrics when --metrics-addr is
// set.
func newEngine(ctx context.Context) (*engine.Engine, error) {
	var opts []engine.Option
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, engine.WithRegisterer(reg))
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Err(err).Str("addr", metricsAddr).Msg("metrics-server")
			}
		}()
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
	}
	return engine.New(ctx, cfg, opts...)
}

// newRNG seeds from the seed setting, or randomly when it is zero.
func newRNG() *rand.Rand {
	seed := cfg.GetUint64(config.ConfigSeed)
	if seed == 0 {
		seed = frand.Uint64n(1<<63) + 1
	}
	log.Debug().Uint64("seed", seed).Msg("rng-seed")
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
