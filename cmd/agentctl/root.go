package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentctl",
		Short: "Inspect agent records and subject identifiers",
		Long: `agentctl runs the gateway's normalization locally.
It prints the record a document would be synced as, formats composite
subject identifiers and checks field table overrides.`,
		SilenceUsage: true,
	}

	root.AddCommand(newFlattenCmd(), newSubjectCmd(), newFieldsCmd())
	return root
}
