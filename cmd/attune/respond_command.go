package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"attune/internal/ipc"
)

func newRespondCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "respond <notification-id> <payload>",
		Short: "Route a notification response to the daemon",
		Long:  "Routes a user response to a delivered nudge. The payload is the templateId:action token carried by the notification.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid notification id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Respond(id, args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Response handled")
				return nil
			})
		},
	}
}

func newReserveCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "reserve <start> <end>",
		Short: "Reserve a notification identifier range for another producer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid range start %q", args[0])
			}
			end, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid range end %q", args[1])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ReserveRange(start, end, owner); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reserved %d-%d for %s\n", start, end, owner)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Name of the producer claiming the range")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
