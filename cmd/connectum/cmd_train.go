package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CPSCourse-TUM-HN/connecTUM/training"
)

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(ctx))

	t := training.NewTrainer(cfg, e.Selector().Exact(), e.Store())
	summary, err := t.Run(ctx)
	if summary != nil {
		log.Info().Int("sequences", summary.Sequences).
			Int("engine-won", summary.Outcomes[training.EngineWon]).
			Int("opponent-won", summary.Outcomes[training.OpponentWon]).
			Int("draw", summary.Outcomes[training.Draw]).
			Int("illegal", summary.Outcomes[training.IllegalColumn]).
			Int("cached", summary.CacheSize).Msg("training-summary")
	}
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("training interrupted; progress so far is saved")
		return nil
	}
	return err
}
