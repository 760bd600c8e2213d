package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(open backendFactory) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:           "attachctl",
		Short:         "Inspect and maintain taskhub attachments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newMigrateCmd(open, &jsonOutput),
		newListCmd(open, &jsonOutput),
		newShowCmd(open, &jsonOutput),
		newDeleteCmd(open, &jsonOutput),
	)
	return cmd
}
