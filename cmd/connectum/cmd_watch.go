package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
	"github.com/CPSCourse-TUM-HN/connecTUM/worker"
)

var watchOpts struct {
	tier  string
	first string
}

func initWatchFlags() {
	f := watchCmd.Flags()
	f.StringVar(&watchOpts.tier, "tier", string(strategy.TierHard), "engine tier")
	f.StringVar(&watchOpts.first, "first", "opponent", "who moves first: engine or opponent")
}

func runWatch(cmd *cobra.Command, args []string) error {
	tier, err := strategy.ParseTier(watchOpts.tier)
	if err != nil {
		return err
	}
	e, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(cmd.Context()))

	first := e.Piece().Opponent()
	switch strings.ToLower(watchOpts.first) {
	case "opponent":
	case "engine":
		first = e.Piece()
	default:
		return fmt.Errorf("--first must be engine or opponent, not %q", watchOpts.first)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	w := worker.NewGameWorker(worker.WorkerConfigFrom(cfg), e, newRNG())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return worker.NewSession(w, os.Stdout, first, tier).Run(gctx, os.Stdin)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
