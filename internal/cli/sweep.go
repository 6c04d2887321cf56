package cli

import (
	"fmt"
	"text/tabwriter"

	"focusflow/internal/service/recurrence"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func sweepCmd(factory Factory) *cobra.Command {
	var (
		force     bool
		day       string
		entityIDs []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one recurrence sweep",
		Long: `Run one recurrence sweep over all recurring entities, or only the given ones.

Examples:
  recurctl sweep
  recurctl sweep --force --day Monday
  recurctl sweep --entity 3f1c... --entity 9a2b...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := recurrence.SweepRequest{ForceCheck: force, DayOverride: day}
			for _, raw := range entityIDs {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid entity id %q: %w", raw, err)
				}
				req.EntityIDs = append(req.EntityIDs, id)
			}

			ctx := cmd.Context()
			backend, err := factory.Backend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			report, err := backend.RunSweep(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, report)
			}

			fmt.Fprintf(out, "Sweep for %s (%s), force=%t\n", report.Date.Format("2006-01-02"), report.Day, report.ForceCheck)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENTITY\tSTATUS\tTASKS\tREASON")
			for _, r := range report.Results {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.EntityID, r.Status, r.TasksCreated, r.Reason)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "bypass rate limiting and same-day dedup")
	cmd.Flags().StringVar(&day, "day", "", "treat today as this day of week (e.g. Monday)")
	cmd.Flags().StringSliceVar(&entityIDs, "entity", nil, "limit the sweep to these entity ids")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}
