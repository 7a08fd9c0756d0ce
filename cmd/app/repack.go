package main

import (
	"github.com/spf13/cobra"

	"github.com/arumata/glacierbag/internal/usecase"
)

func newRepackCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "repack <path>",
		Short: "Rewrite a branch's bag membership from scratch and clean up its orphan tail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(cmd)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			branch, err := findBranch(state.tree, args[0])
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			result, err := usecase.MirrorBranch(cmd.Context(), state.cfg, state.deps, state.logger, branch, state.cat, true)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			printRunResult(state.cfg, result)
			*exitCode = exitSuccess
			return nil
		},
	}
}
