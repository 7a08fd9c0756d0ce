package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arumata/glacierbag/internal/usecase"
)

// newCronCmd is the "smart cron" entry point (§4.8): only branches
// whose last scan is older than the configured interval are mirrored.
// Output is buffered and discarded when the run performed no work, so
// an external timer can invoke this on a tight schedule without
// filling logs with no-op reports. A guard denial exits non-zero here
// (§7: never silent, and cron has no operator watching the terminal).
func newCronCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "cron",
		Short: "Mirror only ripe branches; silent when there is nothing to do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(cmd)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}

			var buf bytes.Buffer
			result, err := usecase.MirrorTree(cmd.Context(), state.cfg, state.deps, state.logger, state.tree, state.cat, time.Now(), true)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}

			writeCronReport(&buf, state.cfg, result)
			if cronDidWork(state.cfg, result) {
				_, _ = buf.WriteTo(os.Stdout)
			}

			for _, be := range result.Errors {
				*exitCode = mapExitCode(be.Err)
				return fmt.Errorf("branch %q: %w", be.Branch, be.Err)
			}
			*exitCode = exitSuccess
			return nil
		},
	}
}

// cronDidWork reports whether the run did anything worth printing: an
// upload, a per-branch failure, or (dry-run) a plan with pending
// changes.
func cronDidWork(cfg *usecase.Config, result *usecase.RunResult) bool {
	if result.BagsUploaded > 0 || len(result.Errors) > 0 {
		return true
	}
	if !cfg.Run {
		for _, plan := range result.Plans {
			if plan.NewLeaves > 0 || plan.DirtyLeaves > 0 {
				return true
			}
		}
	}
	return false
}

func writeCronReport(buf *bytes.Buffer, cfg *usecase.Config, result *usecase.RunResult) {
	if !cfg.Run {
		for _, plan := range result.Plans {
			if plan.NewLeaves == 0 && plan.DirtyLeaves == 0 {
				continue
			}
			fmt.Fprintf(buf, "[dry-run] %s: %d new leaf(s), %d dirty leaf(s), %d bag(s) touched\n",
				plan.Branch, plan.NewLeaves, plan.DirtyLeaves, len(plan.BagsTouched))
		}
		return
	}
	fmt.Fprintf(buf, "cron: mirrored %d branch(es), uploaded %d bag(s), %d bytes\n",
		result.BranchesScanned, result.BagsUploaded, result.BytesUploaded)
	for _, be := range result.Errors {
		fmt.Fprintf(buf, "  %s: failed: %v\n", be.Branch, be.Err)
	}
}
