package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "provenance",
		Short: "Creator name registry, catalog factory and asset provenance catalogs",
		Long: `provenance serves the name registry, the catalog factory and every
provisioned catalog over HTTP. Configuration is read from the environment.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return root
}
