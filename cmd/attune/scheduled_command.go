package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"attune/internal/ipc"
)

func newScheduledCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scheduled",
		Short: "List pending scheduled nudges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ScheduledList()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(out, "No scheduled nudges")
					return nil
				}

				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						strconv.FormatInt(item.NotificationID, 10),
						item.TemplateID,
						item.Trigger,
						item.ScheduledAt.Local().Format(time.RFC1123),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Template", "Trigger", "Delivery"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
