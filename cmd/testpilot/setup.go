package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Describe the application under test",
	}

	cmd.AddCommand(newSetupSetCmd())
	cmd.AddCommand(newSetupShowCmd())
	return cmd
}

func newSetupSetCmd() *cobra.Command {
	var appURL, description, login, sheet string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the app URL, description, login details or sheet link",
		Long:  "Update the setup info. Only the flags given are changed; pass an empty value to clear a field.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			info := ws.State().SetupInfo
			flags := cmd.Flags()
			if flags.Changed("url") {
				info.AppURL = appURL
			}
			if flags.Changed("description") {
				info.AppDescription = description
			}
			if flags.Changed("login") {
				info.LoginDetails = login
			}
			if flags.Changed("sheet") {
				info.GoogleSheetLink = sheet
			}

			if err := ws.SetSetup(cmd.Context(), info); err != nil {
				return err
			}

			if flagJSON {
				printJSON(ws.State().SetupInfo)
				return nil
			}
			printMessage("Setup updated.")
			return nil
		},
	}

	cmd.Flags().StringVar(&appURL, "url", "", "Application URL")
	cmd.Flags().StringVar(&description, "description", "", "What the application does")
	cmd.Flags().StringVar(&login, "login", "", "Login details testers should use")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Link to a shared test sheet")
	return cmd
}

func newSetupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the setup info",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := getWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}

			info := ws.State().SetupInfo
			if flagJSON {
				printJSON(info)
				return nil
			}

			printMessage(fmt.Sprintf("App URL:       %s", orNone(info.AppURL)))
			printMessage(fmt.Sprintf("Description:   %s", orNone(info.AppDescription)))
			printMessage(fmt.Sprintf("Login details: %s", orNone(info.LoginDetails)))
			printMessage(fmt.Sprintf("Sheet link:    %s", orNone(info.GoogleSheetLink)))
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
