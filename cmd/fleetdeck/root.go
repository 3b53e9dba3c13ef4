package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "fleetdeck",
		Short:         "FleetDeck serves the fleet dashboard and manages its themes and views",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to configuration file")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newThemesCmd(flags))
	cmd.AddCommand(newViewsCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
