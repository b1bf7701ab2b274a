package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/spf13/cobra"
)

func newFlattenCmd() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "flatten [file|-]",
		Short: "Print the normalized record of a JSON document",
		Long: `Flatten nested keys with ":", collect skill tags and normalize
values exactly as the gateway does before a sync. Reads stdin when the
argument is "-" or missing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			raw, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			doc, err := jsonv.Parse(raw)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			if !doc.IsObject() {
				return fmt.Errorf("%s must hold a JSON object, got %s", path, doc.Kind())
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				encoder.SetIndent("", "  ")
			}
			return encoder.Encode(record.Build(doc))
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print on one line")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return raw, nil
}
