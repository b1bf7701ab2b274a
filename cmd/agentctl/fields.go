package main

import (
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/view"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields [path]",
		Short: "Print the reverse mapping field table",
		Long: `Print the built-in field table, or load and validate an override
(.yaml, .yml or .toml) as FIELD_TABLE_PATH would.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				table *view.Table
				err   error
			)
			if len(args) == 1 {
				table, err = view.LoadTable(args[0])
			} else {
				table, err = view.DefaultTable()
			}
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(table)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
