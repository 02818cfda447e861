package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-projects/cmd"
	"github.com/mattsolo1/grove-projects/cmd/config"
)

var app *config.App

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gp",
		Short:         "Browse and publish the projects of a workspace",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cobra.OnInitialize(config.InitConfig)
	config.AddGlobalFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// This runs once before any subcommand
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		var err error
		app, err = config.InitApp()
		return err
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app != nil {
			if err := app.Close(); err != nil {
				app.Logger.WithError(err).Warn("failed to close application")
			}
			app = nil
		}
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewTreeCmd(&app))
	rootCmd.AddCommand(cmd.NewWorkspaceCmd(&app))
	rootCmd.AddCommand(cmd.NewPublishCmd(&app))
	rootCmd.AddCommand(cmd.NewUnpublishCmd(&app))
	rootCmd.AddCommand(cmd.NewWatchCmd(&app))
	rootCmd.AddCommand(cmd.NewTuiCmd(&app))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
