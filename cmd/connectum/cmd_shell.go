package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/CPSCourse-TUM-HN/connecTUM/shell"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

var shellTier string

func initShellFlags() {
	shellCmd.Flags().StringVar(&shellTier, "tier", string(strategy.TierHard), "starting engine tier")
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tier, err := strategy.ParseTier(shellTier)
	if err != nil {
		return err
	}
	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(ctx))

	sc, err := shell.NewShellController(e, tier, newRNG(), shell.DefaultReadlineConfig())
	if err != nil {
		return err
	}
	sc.Loop(ctx)
	return nil
}
