package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"attune/internal/ipc"
	"attune/internal/nudge"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and scheduler status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Attune Daemon", colorize) {
					fmt.Fprintln(out, line)
				}

				runKind := statusError
				runMsg := "stopped"
				if resp.Running {
					runKind = statusOK
					runMsg = fmt.Sprintf("pid %d", resp.PID)
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", runKind, runMsg, colorize))
				fmt.Fprintln(out, renderStatusLine("Scheduler", schedulerKind(resp.SchedulerStatus), resp.SchedulerStatus, colorize))
				fmt.Fprintln(out, renderStatusLine("Initialized", boolKind(resp.Initialized), yesNo(resp.Initialized), colorize))
				fmt.Fprintln(out, renderStatusLine("Delivered today", statusInfo, fmt.Sprintf("%d", resp.DeliveredToday), colorize))
				fmt.Fprintln(out, renderStatusLine("Scheduled", statusInfo, fmt.Sprintf("%d pending", resp.ScheduledCount), colorize))
				if len(resp.Tasks) > 0 {
					fmt.Fprintln(out, renderStatusLine("Background tasks", statusInfo, strings.Join(resp.Tasks, ", "), colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, resp.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, resp.LockPath, colorize))
				return nil
			})
		},
	}
}

func schedulerKind(status string) statusKind {
	parsed, ok := nudge.ParseSchedulerStatus(status)
	if !ok {
		return statusInfo
	}
	switch parsed {
	case nudge.StatusReady:
		return statusOK
	case nudge.StatusFailed, nudge.StatusPermissionPermanentlyDenied:
		return statusError
	case nudge.StatusPermissionDenied:
		return statusWarn
	default:
		return statusInfo
	}
}

func boolKind(value bool) statusKind {
	if value {
		return statusOK
	}
	return statusWarn
}
