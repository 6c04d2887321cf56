package cli

import (
	"fmt"
	"strings"

	"focusflow/internal/calendar"
	"focusflow/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func scheduleCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and repair recurrence schedules",
	}
	cmd.AddCommand(scheduleRepairCmd(factory))
	return cmd
}

func scheduleRepairCmd(factory Factory) *cobra.Command {
	var (
		days    []string
		enabled bool
		count   int
	)

	cmd := &cobra.Command{
		Use:   "repair <entity-id>",
		Short: "Overwrite the schedule of one entity",
		Long: `Overwrite the recurrence schedule row of one entity.

Use this to correct a schedule whose stored days are wrong. Day names are
normalized (" monday " becomes "Monday"); unknown names are rejected.

Examples:
  recurctl schedule repair 3f1c... --days Monday,Wednesday,Friday
  recurctl schedule repair 3f1c... --days Tuesday --count 2 --enabled=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid entity id %q: %w", args[0], err)
			}
			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}

			parsed := make([]calendar.DayName, 0, len(days))
			var invalid []string
			for _, raw := range days {
				d := calendar.NormalizeDay(raw)
				if !d.Valid() {
					invalid = append(invalid, raw)
					continue
				}
				parsed = append(parsed, d)
			}
			if len(invalid) > 0 {
				return fmt.Errorf("unrecognized day names: %s", strings.Join(invalid, ", "))
			}

			ctx := cmd.Context()
			backend, err := factory.Backend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			schedule := &model.RecurrenceSchedule{
				EntityID:       entityID,
				Enabled:        enabled,
				DaysOfWeek:     parsed,
				DailyTaskCount: count,
			}
			if err := backend.UpsertSchedule(ctx, schedule); err != nil {
				return err
			}

			names := make([]string, len(parsed))
			for i, d := range parsed {
				names[i] = d.String()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schedule for %s set to [%s] (enabled=%t, daily_task_count=%d)\n",
				entityID, strings.Join(names, ", "), enabled, count)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&days, "days", nil, "comma separated day names")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "whether the schedule is enabled")
	cmd.Flags().IntVar(&count, "count", 0, "daily task count override (0 uses the entity's count)")
	_ = cmd.MarkFlagRequired("days")
	return cmd
}
