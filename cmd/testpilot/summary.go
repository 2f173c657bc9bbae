package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show test execution counts per module",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			sum := ws.Summary()
			if flagJSON {
				printJSON(sum)
				return nil
			}

			headers := []string{"MODULE", "TOTAL", "PENDING", "PASSED", "FAILED", "BLOCKED"}
			var rows [][]string
			for _, m := range sum.Modules {
				rows = append(rows, []string{
					m.Module,
					strconv.Itoa(m.Total),
					strconv.Itoa(m.Pending),
					strconv.Itoa(m.Passed),
					strconv.Itoa(m.Failed),
					strconv.Itoa(m.Blocked),
				})
			}
			rows = append(rows, []string{
				"ALL",
				strconv.Itoa(sum.Total),
				strconv.Itoa(sum.Pending),
				strconv.Itoa(sum.Passed),
				strconv.Itoa(sum.Failed),
				strconv.Itoa(sum.Blocked),
			})
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nExecuted %d of %d, pass rate %.1f%%", sum.Executed(), sum.Total, sum.PassRate()))
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the whole project: setup, modules and test cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction("Discard the whole project? This cannot be undone.", yes) {
				printMessage("Aborted.")
				return nil
			}

			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := ws.Reset(cmd.Context()); err != nil {
				return err
			}

			printMessage("Project reset.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
