package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"attune/internal/ipc"
)

var metricTitler = cases.Title(language.English)

func newAnalyticsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show nudge response analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Analytics()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Counters) == 0 {
					fmt.Fprintln(out, "No analytics recorded yet")
					return nil
				}

				names := make([]string, 0, len(resp.Counters))
				for name := range resp.Counters {
					names = append(names, name)
				}
				sort.Strings(names)

				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{
						metricTitler.String(strings.TrimPrefix(name, "nudgeAnalytics_")),
						strconv.FormatInt(resp.Counters[name], 10),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Metric", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}
