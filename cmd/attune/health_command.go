package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"attune/internal/ipc"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show state database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DatabaseHealth()
				if err != nil && resp == nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("State Database", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Path", statusInfo, resp.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Exists", boolKind(resp.DatabaseExists), yesNo(resp.DatabaseExists), colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", boolKind(resp.DatabaseReadable), yesNo(resp.DatabaseReadable), colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(resp.IntegrityCheck), yesNo(resp.IntegrityCheck), colorize))
				fmt.Fprintln(out, renderStatusLine("Scheduled rows", statusInfo, fmt.Sprintf("%d", resp.ScheduledCount), colorize))
				fmt.Fprintln(out, renderStatusLine("Record rows", statusInfo, fmt.Sprintf("%d", resp.RecordCount), colorize))
				if len(resp.MissingTables) > 0 {
					fmt.Fprintln(out, renderStatusLine("Missing tables", statusError, strings.Join(resp.MissingTables, ", "), colorize))
				}
				if resp.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, resp.Error, colorize))
				}
				return err
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the attune daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				return nil
			})
		},
	}
}
