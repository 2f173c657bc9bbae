package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
)

func newModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modules",
		Aliases: []string{"module"},
		Short:   "Discover and manage application modules",
	}

	cmd.AddCommand(newModulesDiscoverCmd())
	cmd.AddCommand(newModulesAcceptCmd())
	cmd.AddCommand(newModulesAddCmd())
	cmd.AddCommand(newModulesListCmd())
	cmd.AddCommand(newModulesRemoveCmd())
	cmd.AddCommand(newModulesAnalyzeCmd())
	return cmd
}

func newModulesDiscoverCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Ask the AI service to suggest modules for the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), true)
			if err != nil {
				return err
			}

			suggestions, cached, err := ws.Discover(cmd.Context(), force)
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(suggestions)
				return nil
			}

			printSuggestions(suggestions)
			if cached {
				printMessage("\n(cached result; use --force to ask again)")
			}
			printMessage("\nAccept with: testpilot modules accept [NAME...]")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Ignore the cached result and ask again")
	return cmd
}

func printSuggestions(suggestions []appmodule.SuggestedModule) {
	headers := []string{"#", "NAME", "DESCRIPTION"}
	var rows [][]string
	for i, s := range suggestions {
		rows = append(rows, []string{strconv.Itoa(i + 1), s.Name, truncate(s.Description, 70)})
	}
	printTable(headers, rows)
}

func newModulesAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept [NAME...]",
		Short: "Add suggested modules to the project (all when no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			added, err := ws.AcceptSuggestions(cmd.Context(), args)
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(added)
				return nil
			}
			printMessage(fmt.Sprintf("Added %d module(s).", len(added)))
			return nil
		},
	}
}

func newModulesAddCmd() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a module by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			m, err := ws.AddModule(cmd.Context(), name, description)
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(m)
				return nil
			}
			printMessage(fmt.Sprintf("Module added: %s", m.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Module name (required)")
	cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&description, "description", "", "Module description")
	return cmd
}

func newModulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			s := ws.State()
			if flagJSON {
				printJSON(s.DiscoveredModules)
				return nil
			}

			headers := []string{"NAME", "CASES", "INSIGHTS", "DESCRIPTION"}
			var rows [][]string
			for _, m := range s.DiscoveredModules {
				insights := "no"
				if m.Insights != "" {
					insights = "yes"
				}
				rows = append(rows, []string{
					m.Name,
					strconv.Itoa(len(s.CasesForModule(m.Name))),
					insights,
					truncate(m.Description, 60),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\n%d module(s)", len(s.DiscoveredModules)))
			return nil
		},
	}
}

func newModulesRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a module and its test cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !confirmAction(fmt.Sprintf("Remove module %s and all its test cases?", name), yes) {
				printMessage("Aborted.")
				return nil
			}

			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := ws.RemoveModule(cmd.Context(), name); err != nil {
				return err
			}

			printMessage(fmt.Sprintf("Module removed: %s", name))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newModulesAnalyzeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "analyze NAME",
		Short: "Get testing insights for a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), true)
			if err != nil {
				return err
			}

			insights, err := ws.Analyze(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(map[string]string{"module": args[0], "insights": insights})
				return nil
			}
			printMessage(insights)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace existing insights")
	return cmd
}
