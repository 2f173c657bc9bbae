package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/testpilot/workspace"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	flagConfig string
	flagJSON   bool
	flagDebug  bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "testpilot",
		Short: "AI-assisted QA test management",
		Long: "A command-line tool for discovering application modules, generating and running " +
			"test cases with an AI model, and exporting results and bug reports.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.testpilot.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "testpilot %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(newModulesCmd())
	rootCmd.AddCommand(newCasesCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newBugsCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newResetCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	closeApp()
	stop()
	if err != nil {
		fmt.Fprintln(stderr, workspace.Describe(err))
		os.Exit(1)
	}
}
