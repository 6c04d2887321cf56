package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func outboxCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Manage outbox events",
	}
	cmd.AddCommand(outboxReplayCmd(factory))
	return cmd
}

func outboxReplayCmd(factory Factory) *cobra.Command {
	var (
		eventID int64
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Republish one event with --id, or every failed event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := factory.Backend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			out := cmd.OutOrStdout()
			if eventID > 0 {
				if err := backend.ReplayEvent(ctx, eventID); err != nil {
					return err
				}
				fmt.Fprintf(out, "Replayed event %d\n", eventID)
				return nil
			}

			n, err := backend.ReplayFailedEvents(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Replayed %d failed events\n", n)
			return nil
		},
	}

	cmd.Flags().Int64Var(&eventID, "id", 0, "replay only this event id")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of failed events to replay")
	return cmd
}
