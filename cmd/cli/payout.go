package main

import (
	"errors"
	"fmt"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	payoutsvc "github.com/amirasaad/stealthmoney/pkg/service/payout"
	"github.com/spf13/cobra"
)

func newPayoutCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Create payouts and query their status",
	}
	cmd.AddCommand(newPayoutCreateCmd(flags), newPayoutStatusCmd(flags))
	return cmd
}

func newPayoutCreateCmd(flags *rootFlags) *cobra.Command {
	var req payout.Request
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Send a payout to a bank account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if req.Currency == "" {
				req.Currency = a.Config.Payout.SupportedCurrency
			}
			res, err := a.PayoutService.CreatePayout(cmd.Context(), &req)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Amount, "amount", "", "amount as a decimal string, e.g. 100.50")
	f.StringVar(&req.Currency, "currency", "", "currency code (defaults to the supported currency)")
	f.StringVar(&req.SourceWalletID, "wallet", "", "source wallet ID")
	f.StringVar(&req.Destination.HolderName, "holder", "", "account holder name")
	f.StringVar(&req.Destination.IBAN, "iban", "", "destination IBAN")
	f.StringVar(&req.Destination.BIC, "bic", "", "destination BIC")
	f.StringVar(&req.Destination.Country, "country", "", "destination country (ISO 3166-1 alpha-2)")
	f.StringVar(&req.Destination.BankName, "bank-name", "", "destination bank name")
	f.StringVar(&req.Destination.City, "city", "", "destination bank city")
	f.StringVar(&req.Description, "description", "", "payout description")
	f.StringVar(&req.IdempotencyKey, "idempotency-key", "", "idempotency key (generated when empty)")
	for _, name := range []string{"amount", "wallet", "holder", "iban", "bic", "country"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newPayoutStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show the status of a payout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := a.PayoutService.GetStatus(cmd.Context(), args[0])
			if errors.Is(err, payoutsvc.ErrNotFound) {
				report, err = a.PayoutService.FetchStatus(cmd.Context(), args[0])
			}
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

// describe renders typed payout errors with their code and user message.
func describe(err error) error {
	e, ok := payout.AsError(err)
	if !ok {
		return err
	}
	if e.Retryable {
		return fmt.Errorf("%s (retryable): %s", e.Code, e.UserMessage)
	}
	return fmt.Errorf("%s: %s", e.Code, e.UserMessage)
}
