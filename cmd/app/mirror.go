package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arumata/glacierbag/internal/usecase"
)

type stateLoader func(cmd *cobra.Command) (*engineState, error)

func newMirrorTreeCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror-tree",
		Short: "Mirror every branch in the tree file, ripe or not (cron mirrors ripe ones only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(cmd)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			result, err := usecase.MirrorTree(cmd.Context(), state.cfg, state.deps, state.logger, state.tree, state.cat, time.Now(), false)
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

func newMirrorBranchCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	var repack bool
	cmd := &cobra.Command{
		Use:   "mirror-branch <path>",
		Short: "Mirror one branch regardless of ripeness (FORCE)",
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
			result, err := usecase.MirrorBranch(cmd.Context(), state.cfg, state.deps, state.logger, branch, state.cat, repack)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			printRunResult(state.cfg, result)
			*exitCode = exitSuccess
			return nil
		},
	}
	cmd.Flags().BoolVar(&repack, "repack", false, "rewrite every bag's membership from scratch (REPACK)")
	return cmd
}

func newMirrorBagCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	var bagID int
	cmd := &cobra.Command{
		Use:   "mirror-bag <path>",
		Short: "Force re-upload of a single already-assigned bag",
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
			if bagID <= 0 {
				err := fmt.Errorf("--bag is required and must be positive: %w", usecase.ErrUsage)
				*exitCode = mapExitCode(err)
				return err
			}
			result, err := usecase.MirrorBag(cmd.Context(), state.cfg, state.deps, state.logger, branch, state.cat, bagID)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			printRunResult(state.cfg, result)
			*exitCode = exitSuccess
			return nil
		},
	}
	cmd.Flags().IntVar(&bagID, "bag", 0, "bag number to force re-upload (required)")
	return cmd
}

func printRunResult(cfg *usecase.Config, result *usecase.RunResult) {
	if !cfg.Run {
		for _, plan := range result.Plans {
			fmt.Fprintf(os.Stdout, "[dry-run] %s: %d new leaf(s), %d dirty leaf(s), %d bag(s) touched\n",
				plan.Branch, plan.NewLeaves, plan.DirtyLeaves, len(plan.BagsTouched))
			for _, entry := range plan.Entries {
				status := "new"
				if entry.Dirty {
					status = fmt.Sprintf("dirty (bag %d)", entry.BagID)
				}
				fmt.Fprintf(os.Stdout, "  %s: %s, %d bytes\n", entry.LeafKey, status, entry.SizeBytes)
			}
		}
		return
	}
	fmt.Fprintf(os.Stdout, "mirrored %d branch(es), uploaded %d bag(s), %d bytes\n",
		result.BranchesScanned, result.BagsUploaded, result.BytesUploaded)
	for _, be := range result.Errors {
		fmt.Fprintf(os.Stdout, "  %s: skipped: %v\n", be.Branch, be.Err)
	}
}
