package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/CPSCourse-TUM-HN/connecTUM/automatic"
	"github.com/CPSCourse-TUM-HN/connecTUM/config"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

var arenaOpts struct {
	tierA, tierB string
	games        int
	threads      int
	confidence   float64
	seedFile     string
	saveSeeds    string
	report       string
	withGames    bool
	histogram    bool
}

func initArenaFlags() {
	f := arenaCmd.Flags()
	f.StringVar(&arenaOpts.tierA, "tier-a", string(strategy.TierHard), "tier playing X; impossible needs engine-piece 1")
	f.StringVar(&arenaOpts.tierB, "tier-b", string(strategy.TierMedium), "tier playing O; impossible needs engine-piece 2")
	f.IntVar(&arenaOpts.games, "games", 100, "number of games")
	f.IntVar(&arenaOpts.threads, "threads", 1, "games played in parallel")
	f.Float64Var(&arenaOpts.confidence, "confidence", 95, "confidence level in percent")
	f.StringVar(&arenaOpts.seedFile, "seeds", "", "replay the games of a seed file")
	f.StringVar(&arenaOpts.saveSeeds, "save-seeds", "", "write the seeds used to this file")
	f.StringVar(&arenaOpts.report, "report", "", "write the YAML report here instead of stdout")
	f.BoolVar(&arenaOpts.withGames, "with-games", false, "include every game in the report")
	f.BoolVar(&arenaOpts.histogram, "histogram", true, "print a histogram of game lengths")
}

func runArena(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tierA, err := strategy.ParseTier(arenaOpts.tierA)
	if err != nil {
		return err
	}
	tierB, err := strategy.ParseTier(arenaOpts.tierB)
	if err != nil {
		return err
	}
	m := automatic.Match{
		TierA:      tierA,
		TierB:      tierB,
		Games:      arenaOpts.games,
		Threads:    arenaOpts.threads,
		Confidence: arenaOpts.confidence,
	}
	if arenaOpts.seedFile != "" {
		if m.Seeds, err = automatic.LoadSeeds(arenaOpts.seedFile); err != nil {
			return err
		}
		m.Games = len(m.Seeds)
	} else {
		m.Seeds = automatic.GenerateSeeds(m.Games)
	}
	if arenaOpts.saveSeeds != "" {
		if err := automatic.SaveSeeds(m.Seeds, arenaOpts.saveSeeds); err != nil {
			return err
		}
	}

	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(ctx))

	opts := strategy.OptionsFromConfig(cfg)
	exact := e.Selector().Exact()
	arena := automatic.NewArena(func() automatic.Player {
		return strategy.NewSelector(opts, exact, nil)
	}, cfg.GetInt(config.ConfigRows), cfg.GetInt(config.ConfigCols), cfg.GetInt(config.ConfigWindowLength))
	arena.ExactPiece = e.Piece()

	report, err := arena.Play(ctx, m)
	if err != nil {
		return err
	}
	out := os.Stdout
	if arenaOpts.report != "" {
		f, err := os.Create(arenaOpts.report)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := report.WriteYAML(out, arenaOpts.withGames); err != nil {
		return err
	}
	if arenaOpts.histogram {
		return report.FprintLengths(os.Stderr, 10)
	}
	return nil
}
