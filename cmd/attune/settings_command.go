package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attune/internal/ipc"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show how to change notification permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.OpenSettings()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Guidance)
				return nil
			})
		},
	}
}
