package main

import (
	"errors"
	"fmt"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/rut"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("invalid")

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check bank identifiers offline",
	}
	cmd.AddCommand(
		checkCmd("iban", "Validate an IBAN (mod-97 checksum and country length)", payout.ValidateIBAN, payout.FormatIBAN),
		checkCmd("bic", "Validate a BIC/SWIFT code", payout.ValidateBIC, payout.NormalizeBIC),
		checkCmd("rut", "Validate a Chilean RUT", rut.Validate, rut.Format),
	)
	return cmd
}

// checkCmd prints the formatted value, or fails for an invalid one so the
// exit status can be scripted against.
func checkCmd(name, short string, check func(string) bool, format func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <value>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !check(args[0]) {
				return fmt.Errorf("%w %s: %q", errInvalid, name, args[0])
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "valid\t%s\n", format(args[0]))
			return err
		},
	}
}
