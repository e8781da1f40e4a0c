package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/CPSCourse-TUM-HN/connecTUM/config"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
)

func runSolve(cmd *cobra.Command, args []string) error {
	s := solver.New(solver.WithMemoryFraction(cfg.GetFloat64(config.ConfigSolverTTFraction)))
	return solver.ServeCommand(cmd.Context(), os.Stdin, os.Stdout, s, cfg.GetInt(config.ConfigWindowLength))
}
