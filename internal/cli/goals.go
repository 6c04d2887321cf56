package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"focusflow/internal/service/goal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func goalsCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Recalculate project goal progress",
	}
	cmd.AddCommand(goalsRecalcCmd(factory))
	cmd.AddCommand(goalsBootstrapCmd(factory))
	return cmd
}

func goalsRecalcCmd(factory Factory) *cobra.Command {
	var goalID string

	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recalculate all enabled goals, or a single goal with --goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uuid.UUID
			if goalID != "" {
				parsed, err := uuid.Parse(goalID)
				if err != nil {
					return fmt.Errorf("invalid goal id %q: %w", goalID, err)
				}
				id = parsed
			}

			ctx := cmd.Context()
			backend, err := factory.Backend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			if id != uuid.Nil {
				outcome, err := backend.RecalculateGoal(ctx, id)
				if err != nil {
					return err
				}
				return printOutcomes(cmd.OutOrStdout(), []goal.Outcome{outcome})
			}

			report, err := backend.RecalculateAll(ctx)
			if err != nil {
				return err
			}
			return printOutcomes(cmd.OutOrStdout(), report.Outcomes)
		},
	}

	cmd.Flags().StringVar(&goalID, "goal", "", "recalculate only this goal id")
	return cmd
}

func goalsBootstrapCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Initialize current_count for date-period goals that are still zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := factory.Backend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			report, err := backend.BootstrapInitialCounts(ctx)
			if err != nil {
				return err
			}
			return printOutcomes(cmd.OutOrStdout(), report.Outcomes)
		},
	}
}

func printOutcomes(w io.Writer, outcomes []goal.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GOAL\tOUTCOME\tPREVIOUS\tNEW\tERROR")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", o.GoalID, o.Kind, o.PreviousCount, o.NewCount, o.Error)
	}
	return tw.Flush()
}
