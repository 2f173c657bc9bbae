package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/testpilot/testcase"
	"github.com/hairizuan-noorazman/testpilot/workspace"
)

func newCasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cases",
		Aliases: []string{"case"},
		Short:   "Generate, run and record test cases",
	}

	cmd.AddCommand(newCasesGenerateCmd())
	cmd.AddCommand(newCasesListCmd())
	cmd.AddCommand(newCasesShowCmd())
	cmd.AddCommand(newCasesRecordCmd())
	cmd.AddCommand(newCasesPredictCmd())
	cmd.AddCommand(newCasesDeleteCmd())
	cmd.AddCommand(newCasesResetCmd())
	return cmd
}

// parseTypes converts --type values into methodologies, rejecting unknown names.
func parseTypes(values []string) ([]testcase.Type, error) {
	var types []testcase.Type
	for _, v := range values {
		t, ok := testcase.ParseType(v)
		if !ok {
			known := make([]string, 0, len(testcase.AllTypes()))
			for _, k := range testcase.AllTypes() {
				known = append(known, string(k))
			}
			return nil, fmt.Errorf("%w: %q (one of %s)", testcase.ErrInvalidType, v, strings.Join(known, ", "))
		}
		types = append(types, t)
	}
	return testcase.OrderTypes(types), nil
}

func newCasesGenerateCmd() *cobra.Command {
	var modules, types []string
	var count int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate test cases for modules with the AI service",
		Long: "Generate test cases for the given modules, or for every module when --module is not set. " +
			"Modules are processed one at a time; if one fails, cases for the earlier modules are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseTypes(types)
			if err != nil {
				return err
			}

			ws, err := getWorkspace(cmd.Context(), true)
			if err != nil {
				return err
			}

			produced, genErr := ws.Generate(cmd.Context(), workspace.GenerateOptions{
				Modules: modules,
				Count:   count,
				Types:   selected,
			})

			if flagJSON {
				printJSON(produced)
			} else if len(produced) > 0 {
				printCases(produced)
				printMessage(fmt.Sprintf("\nGenerated %d test case(s).", len(produced)))
			}
			return genErr
		},
	}

	cmd.Flags().StringSliceVarP(&modules, "module", "m", nil, "Module to generate for (repeatable)")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Test type to focus on (repeatable)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Test cases per module (default 5, max 25)")
	return cmd
}

func printCases(cases []testcase.TestCase) {
	headers := []string{"ID", "MODULE", "TYPE", "STATUS", "TITLE"}
	var rows [][]string
	for _, tc := range cases {
		rows = append(rows, []string{
			tc.ID,
			tc.Module,
			string(tc.Type),
			string(tc.Status),
			truncate(tc.Title, 60),
		})
	}
	printTable(headers, rows)
}

func newCasesListCmd() *cobra.Command {
	var module, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			var want testcase.Status
			if status != "" {
				parsed, ok := testcase.ParseStatus(status)
				if !ok {
					return fmt.Errorf("%w: %q", testcase.ErrInvalidStatus, status)
				}
				want = parsed
			}

			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			var cases []testcase.TestCase
			for _, tc := range ws.State().TestCases {
				if module != "" && tc.Module != module {
					continue
				}
				if want != "" && tc.Status != want {
					continue
				}
				cases = append(cases, tc)
			}

			if flagJSON {
				printJSON(cases)
				return nil
			}
			printCases(cases)
			printMessage(fmt.Sprintf("\n%d test case(s)", len(cases)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "Only cases of this module")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only cases with this status")
	return cmd
}

func newCasesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			tc, ok := ws.State().TestCase(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", testcase.ErrTestCaseNotFound, args[0])
			}

			if flagJSON {
				printJSON(tc)
				return nil
			}

			printMessage(fmt.Sprintf("%s  %s", tc.ID, tc.Title))
			printMessage(fmt.Sprintf("Module: %s   Type: %s   Status: %s", tc.Module, tc.Type, tc.Status))
			if tc.Description != "" {
				printMessage("\n" + tc.Description)
			}
			printMessage("\nSteps:")
			for i, step := range tc.Steps {
				printMessage(fmt.Sprintf("  %d. %s", i+1, step))
			}
			printMessage("\nExpected: " + tc.ExpectedResults)
			if tc.ActualResults != "" {
				printMessage("Actual:   " + tc.ActualResults)
			}
			return nil
		},
	}
}

func newCasesRecordCmd() *cobra.Command {
	var status, actual string

	cmd := &cobra.Command{
		Use:   "record ID",
		Short: "Record the result of running a test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			if err := ws.Record(cmd.Context(), args[0], status, actual); err != nil {
				return err
			}

			tc, _ := ws.State().TestCase(args[0])
			if flagJSON {
				printJSON(tc)
				return nil
			}
			printMessage(fmt.Sprintf("%s marked %s.", tc.ID, tc.Status))
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Passed, Failed, Blocked or Pending (required)")
	cmd.MarkFlagRequired("status")
	cmd.Flags().StringVarP(&actual, "actual", "a", "", "What actually happened")
	return cmd
}

func newCasesPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict [ID...]",
		Short: "Let the AI service predict the outcome of test cases (all Pending when no ID is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), true)
			if err != nil {
				return err
			}

			done, predictErr := ws.Predict(cmd.Context(), args)

			if flagJSON {
				printJSON(done)
			} else if len(done) > 0 {
				headers := []string{"ID", "STATUS", "ACTUAL RESULTS"}
				var rows [][]string
				for _, tc := range done {
					rows = append(rows, []string{tc.ID, string(tc.Status), truncate(tc.ActualResults, 70)})
				}
				printTable(headers, rows)
				printMessage(fmt.Sprintf("\nPredicted %d test case(s).", len(done)))
			} else if predictErr == nil {
				printMessage("No pending test cases.")
			}
			return predictErr
		},
	}
}

func newCasesDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(fmt.Sprintf("Delete test case %s?", args[0]), yes) {
				printMessage("Aborted.")
				return nil
			}

			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := ws.DeleteTestCase(cmd.Context(), args[0]); err != nil {
				return err
			}

			printMessage(fmt.Sprintf("Test case deleted: %s", args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newCasesResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set every test case back to Pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction("Discard all recorded results?", yes) {
				printMessage("Aborted.")
				return nil
			}

			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := ws.ResetResults(cmd.Context()); err != nil {
				return err
			}

			printMessage("All results reset to Pending.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
