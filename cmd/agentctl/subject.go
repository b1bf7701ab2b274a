package main

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/identity"
	"github.com/spf13/cobra"
)

func newSubjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subject <chainId> <contract> <tokenId> | subject <composite>",
		Short: "Format or validate a composite subject identifier",
		Long: `With three arguments, print the canonical chainId:contract:tokenId
identifier with a checksummed contract address. With one argument, validate
an identifier and print its parts.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("expected 1 or 3 arguments, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			composite, err := identity.ParseComposite(strings.Join(args, ":"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 3 {
				fmt.Fprintln(out, composite.String())
				return nil
			}
			fmt.Fprintf(out, "chain:    %d\ncontract: %s\ntoken:    %s\n",
				composite.ChainID, composite.Contract.Hex(), composite.TokenID.String())
			return nil
		},
	}
}
