package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/testpilot/workspace"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import test cases from a CSV file",
		Long: "Import test cases from CSV. Required columns: Title, Description, " +
			"Steps (semicolon separated), Expected Results, Type, Module. Use - to read stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			imported, err := ws.Import(cmd.Context(), in)
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(imported)
				return nil
			}
			if len(imported) == 0 {
				printMessage("No test cases found in file.")
				return nil
			}
			printCases(imported)
			printMessage(fmt.Sprintf("\nImported %d test case(s).", len(imported)))
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export test results or a bug report as CSV",
	}

	cmd.AddCommand(newExportKindCmd(workspace.ExportResults, "Export every test case with its result"))
	cmd.AddCommand(newExportKindCmd(workspace.ExportBugs, "Export failed and blocked test cases as a bug report"))
	return cmd
}

func newExportKindCmd(kind workspace.ExportKind, short string) *cobra.Command {
	var output string
	var publish bool

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		Long: short + ". Writes to stdout unless --output is set; " +
			"--publish uploads to the configured export storage instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			if publish {
				published, err := ws.Publish(cmd.Context(), kind)
				if err != nil {
					return err
				}
				if flagJSON {
					printJSON(published)
					return nil
				}
				printMessage(fmt.Sprintf("Exported %d row(s) to %s", published.Rows, published.URL))
				return nil
			}

			var out io.Writer = stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			rows, err := writeExport(cmd, ws, kind, out)
			if err != nil {
				return err
			}
			if kind == workspace.ExportBugs && rows == 0 {
				printWarning("No failed or blocked test cases.")
			}
			if output != "" {
				printMessage(fmt.Sprintf("Exported %d row(s) to %s", rows, output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload to export storage and print its URL")
	return cmd
}

func writeExport(cmd *cobra.Command, ws *workspace.Workspace, kind workspace.ExportKind, out io.Writer) (int, error) {
	if kind == workspace.ExportBugs {
		return ws.ExportBugs(cmd.Context(), out)
	}
	if err := ws.ExportResults(cmd.Context(), out); err != nil {
		return 0, err
	}
	return len(ws.State().TestCases), nil
}

func newBugsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bugs",
		Short: "Work with bugs found by failed test cases",
	}

	cmd.AddCommand(newBugsFileCmd())
	return cmd
}

func newBugsFileCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "file",
		Short: "Create an issue in the configured tracker for each failed or blocked test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			if appCfg.Tracker.Provider == "" {
				return workspace.ErrNoTracker
			}

			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			summary := ws.Summary()
			defects := summary.Failed + summary.Blocked
			if defects == 0 {
				printMessage("No failed or blocked test cases.")
				return nil
			}
			if !confirmAction(fmt.Sprintf("File %d issue(s) in %s?", defects, appCfg.Tracker.Provider), yes) {
				printMessage("Aborted.")
				return nil
			}

			filed, fileErr := ws.FileBugs(cmd.Context())

			if flagJSON {
				printJSON(filed)
			} else if len(filed) > 0 {
				headers := []string{"BUG", "ISSUE", "URL"}
				var rows [][]string
				for _, f := range filed {
					rows = append(rows, []string{f.BugID, f.Issue.ExternalID, f.Issue.URL})
				}
				printTable(headers, rows)
				printMessage(fmt.Sprintf("\nFiled %d issue(s).", len(filed)))
			}
			return fileErr
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
