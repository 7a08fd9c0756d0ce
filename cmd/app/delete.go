package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arumata/glacierbag/internal/usecase"
)

func newDeleteCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	var leafKey string
	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a branch, or a single leaf within it, from the catalog and object store",
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
			if !state.cfg.Run {
				fmt.Fprintln(os.Stdout, "[dry-run] delete requires --run; nothing was removed")
				*exitCode = exitSuccess
				return nil
			}
			now := time.Now()
			if leafKey != "" {
				err = usecase.DeleteLeaf(cmd.Context(), state.cfg, state.deps, state.logger, branch, leafKey, state.cat, now)
			} else {
				err = usecase.DeleteBranch(cmd.Context(), state.cfg, state.deps, state.logger, branch, state.cat, now)
			}
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			*exitCode = exitSuccess
			return nil
		},
	}
	cmd.Flags().StringVar(&leafKey, "leaf", "", "delete only this leaf key instead of the whole branch")
	return cmd
}

func newPruneCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete catalog leaves whose source directory no longer exists on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(cmd)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			removed, err := pruneMissingLeaves(cmd.Context(), state)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			for _, r := range removed {
				verb := "would remove"
				if state.cfg.Run {
					verb = "removed"
				}
				fmt.Fprintf(os.Stdout, "%s: %s %s (source no longer exists)\n", r.branch, verb, r.leaf)
			}
			*exitCode = exitSuccess
			return nil
		},
	}
}

type prunedLeaf struct {
	branch string
	leaf   string
}

// pruneMissingLeaves finds every catalog leaf whose discovered spec no
// longer shows up on a fresh scan of its branch and, with --run,
// deletes it via the same retention-guarded path as DeleteLeaf.
func pruneMissingLeaves(ctx context.Context, state *engineState) ([]prunedLeaf, error) {
	var removed []prunedLeaf
	now := time.Now()
	for _, branch := range state.tree {
		entry, ok := state.cat.Branches[usecase.BranchKey(branch)]
		if !ok {
			continue
		}
		localRoot := branch.LocalRoot(state.cfg.RemoteMountBase)
		specs, err := usecase.DiscoverLeaves(ctx, state.deps.FileSystem, branch, localRoot)
		if err != nil {
			state.logger.WarnContext(ctx, "prune scan failed, skipping branch", "branch", branch.Path, "error", err)
			continue
		}
		present := make(map[string]bool, len(specs))
		for _, s := range specs {
			present[s.Key] = true
		}
		for key := range entry.Leaves {
			if present[key] {
				continue
			}
			removed = append(removed, prunedLeaf{branch: branch.Path, leaf: key})
			if state.cfg.Run {
				if err := usecase.DeleteLeaf(ctx, state.cfg, state.deps, state.logger, branch, key, state.cat, now); err != nil {
					state.logger.WarnContext(ctx, "prune delete failed", "branch", branch.Path, "leaf", key, "error", err)
				}
			}
		}
	}
	return removed, nil
}
