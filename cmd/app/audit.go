package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arumata/glacierbag/internal/usecase"
)

// newAuditCmd verifies the committed catalog against the object store
// (every committed leaf's object present, verifiers matching) and
// reports the catalog's estimated Deep Archive cost. Read-only, so it
// never requires --run.
func newAuditCmd(loadState stateLoader, exitCode *int) *cobra.Command {
	var skipRemote bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Verify the catalog against the object store and report estimated cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(cmd)
			if err != nil {
				*exitCode = mapExitCode(err)
				return err
			}

			estimate := usecase.EstimateCost(state.cat, state.cfg.Pricing)
			fmt.Fprintf(os.Stdout, "total stored: %s\n", estimate.HumanReadable)
			fmt.Fprintf(os.Stdout, "estimated monthly storage cost: $%.4f\n", estimate.MonthlyStorage)
			fmt.Fprintf(os.Stdout, "cumulative PUT request cost: $%.4f\n", estimate.EstimatedPutCost)

			if skipRemote {
				*exitCode = exitSuccess
				return nil
			}

			findings, err := usecase.AuditRemote(cmd.Context(), state.deps.ObjectStore, state.cat)
			if err != nil {
				err = fmt.Errorf("remote audit: %w: %w", err, usecase.ErrCritical)
				*exitCode = mapExitCode(err)
				return err
			}
			if len(findings) == 0 {
				fmt.Fprintln(os.Stdout, "remote audit: clean")
				*exitCode = exitSuccess
				return nil
			}
			for _, f := range findings {
				switch f.Problem {
				case "missing":
					fmt.Fprintf(os.Stdout, "MISSING  %s (branch %s)\n", f.ObjectKey, f.Branch)
				default:
					fmt.Fprintf(os.Stdout, "MISMATCH %s: catalog %s, remote %s (branch %s)\n",
						f.ObjectKey, f.Expected, f.Actual, f.Branch)
				}
			}
			err = fmt.Errorf("remote audit found %d discrepancies: %w", len(findings), usecase.ErrCritical)
			*exitCode = mapExitCode(err)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipRemote, "cost-only", false, "skip the catalog-vs-remote object check")
	return cmd
}
