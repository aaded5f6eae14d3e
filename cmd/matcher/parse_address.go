package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vacancy-codes/internal/normalize"
	"github.com/vacancy-codes/internal/postal"
)

// createParseAddressCmd shows how libpostal and the address normalizer see an
// address, to help choose noise markers
func createParseAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-address [address]",
		Short: "Show libpostal components and the normalized form of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			n := normalize.New(normalize.Address, matching.Areas.NoiseMarkers, matching.Areas.Prefix)
			fmt.Printf("Input:      %s\n", address)
			fmt.Printf("Normalized: %q\n", n.Normalize(address))

			components, err := postal.Parse(address)
			if errors.Is(err, postal.ErrUnavailable) {
				fmt.Println("libpostal:  not available (build with -tags libpostal)")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println("Parsed components:")
			for _, c := range components {
				fmt.Printf("  %-15s %s\n", c.Label, c.Value)
			}
			if area := postal.Pick(components, postal.AreaLabels...); area != "" {
				fmt.Printf("Area hint:  %s\n", area)
			}
			return nil
		},
	}
}
