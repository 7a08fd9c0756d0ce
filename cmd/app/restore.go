package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arumata/glacierbag/internal/usecase"
)

// newRestoreCmd resolves a restore target — a filename looked up in the
// live-run manifests, a single bag, a branch, or the entire tree — to
// the set of Deep Archive object keys it lives in, and with --run
// initiates the cold-tier thaw for each. Downloading and unpacking the
// thawed objects is done out of band once the retrieval completes.
func newRestoreCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	var (
		file     string
		branch   string
		bagID    int
		wholeTree bool
		days     int
	)
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Resolve a file, bag, branch, or the whole tree to its archive objects and request retrieval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(cmd)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}

			keys, err := resolveRestoreKeys(cmd, state, file, branch, bagID, wholeTree)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}

			if !state.cfg.Run {
				for _, key := range keys {
					fmt.Fprintf(os.Stdout, "[dry-run] would request retrieval of %s\n", key)
				}
				*exitCode = exitSuccess
				return nil
			}

			if err := usecase.RequestRestore(cmd.Context(), state.deps.ObjectStore, state.logger, keys, days); err != nil {
				*exitCode = mapExitCode(err)
				return err
			}
			fmt.Fprintf(os.Stdout, "requested retrieval of %d object(s); poll the bucket for completion\n", len(keys))
			*exitCode = exitSuccess
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "restore whichever bag(s) contain this filename (manifest lookup)")
	cmd.Flags().StringVar(&branch, "branch", "", "restore every bag of this branch")
	cmd.Flags().IntVar(&bagID, "bag", 0, "restore this bag number (requires --branch)")
	cmd.Flags().BoolVar(&wholeTree, "tree", false, "restore every committed bag in the catalog")
	cmd.Flags().IntVar(&days, "days", 7, "days to keep thawed copies available")
	return cmd
}

func resolveRestoreKeys(cmd *cobra.Command, state *engineState, file, branch string, bagID int, wholeTree bool) ([]string, error) {
	switch {
	case file != "":
		return usecase.RestoreKeysForFile(cmd.Context(), state.deps.FileSystem, state.cfg.ManifestDir, state.cat, file)
	case branch != "" && bagID > 0:
		return usecase.RestoreKeysForBag(state.cat, branch, bagID)
	case branch != "":
		return usecase.RestoreKeysForBranch(state.cat, branch)
	case wholeTree:
		return usecase.RestoreKeysForTree(state.cat), nil
	default:
		return nil, fmt.Errorf("one of --file, --branch [--bag], or --tree is required: %w", usecase.ErrUsage)
	}
}
