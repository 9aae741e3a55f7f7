package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "freightdesk",
		Short:        "Freight rate ingestion and matching service",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newPartnerCmd())
	return cmd
}
