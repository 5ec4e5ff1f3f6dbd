package commands

import (
	"fmt"
	"os"

	"lockbox/config"
	"lockbox/utils"

	"github.com/spf13/cobra"
)

// Execute runs the lockbox CLI.
func Execute() {
	rootCmd := &cobra.Command{
		Use:   "lockbox",
		Short: "Storage-space booking lifecycle engine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			utils.InitializeLogger()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		ServeCmd(),
		WorkerCmd(),
		SweepCmd(),
		IndexesCmd(),
		TokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
