package payout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SEPACountries are the destinations reachable by EUR payouts.
var SEPACountries = []string{
	"AT", "BE", "BG", "CH", "CY", "CZ", "DE", "DK", "EE", "ES", "FI", "FR",
	"GB", "GR", "HR", "HU", "IE", "IS", "IT", "LI", "LT", "LU", "LV", "MC",
	"MT", "NL", "NO", "PL", "PT", "RO", "SE", "SI", "SK",
}

// Policy is the allow-list a payout request is checked against.
type Policy struct {
	// Currency is the single supported payout currency.
	Currency string
	// Countries lists the supported destination countries per currency.
	Countries map[string][]string
}

// DefaultPolicy allows EUR payouts to SEPA countries.
var DefaultPolicy = Policy{
	Currency:  "EUR",
	Countries: map[string][]string{"EUR": SEPACountries},
}

// ValidateRequest checks req against DefaultPolicy.
func ValidateRequest(req *Request) error {
	return DefaultPolicy.Validate(req)
}

// Validate checks the request shape and then its destination bank account.
// It never touches the network. Failures are non-retryable typed errors.
func (p Policy) Validate(req *Request) error {
	if req == nil {
		return NewValidationError("Payout request is required")
	}
	if strings.TrimSpace(req.SourceWalletID) == "" {
		return NewValidationError("Source wallet ID is required")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return NewValidationError("Payout amount must be a positive number",
			WithDetails(map[string]any{"amount": req.Amount}))
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency != p.Currency {
		return NewValidationError(
			fmt.Sprintf("Unsupported currency: %s. Only %s is supported", req.Currency, p.Currency),
			WithDetails(map[string]any{"currency": req.Currency}),
		)
	}

	country := strings.ToUpper(strings.TrimSpace(req.Destination.Country))
	if !slices.Contains(p.Countries[currency], country) {
		return NewValidationError(
			fmt.Sprintf("Country %s is not supported for %s payouts", req.Destination.Country, currency),
			WithDetails(map[string]any{"currency": currency, "country": req.Destination.Country}),
		)
	}

	return ValidateBankAccount(&req.Destination)
}

// ValidateBankAccount checks the holder, IBAN and BIC of a destination.
func ValidateBankAccount(acct *BankAccount) error {
	if acct == nil {
		return NewError(CodeInvalidBankDetails, "Bank account is required")
	}
	if strings.TrimSpace(acct.HolderName) == "" {
		return NewError(CodeInvalidBankDetails, "Account holder name is required",
			WithDetails(map[string]any{"field": "holderName"}))
	}
	if !ValidateIBAN(acct.IBAN) {
		return NewError(CodeInvalidBankDetails, "Invalid IBAN format or checksum",
			WithDetails(map[string]any{"field": "iban"}))
	}
	if !ValidateBIC(acct.BIC) {
		return NewError(CodeInvalidBankDetails, "Invalid BIC format",
			WithDetails(map[string]any{"field": "bic"}))
	}
	return nil
}
