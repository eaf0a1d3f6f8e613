package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFlag string
	var sitesFlag string

	ctx := newCommandContext(&envFlag, &sitesFlag)

	rootCmd := &cobra.Command{
		Use:           "showwatch",
		Short:         "Watch ticketing pages and alert when screens open for booking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "Path to a .env file (default .env when present)")
	rootCmd.PersistentFlags().StringVarP(&sitesFlag, "sites", "s", "", "Site definitions YAML (overrides SITES_FILE)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newClassifyCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}
