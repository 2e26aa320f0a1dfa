// Package payout holds the payout domain: request and result types, the
// typed error taxonomy, the failure classifier and the request, IBAN and
// BIC validators.
package payout

import (
	"time"
)

// Status represents the lifecycle state of a payout.
type Status string

const (
	// StatusPending indicates the payout was accepted and is in flight.
	StatusPending Status = "pending"
	// StatusComplete indicates the funds reached the destination bank.
	StatusComplete Status = "complete"
	// StatusFailed indicates the payout was rejected or returned.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// BankAccount is the destination of a payout.
type BankAccount struct {
	HolderName string `json:"holderName"`
	IBAN       string `json:"iban"`
	BIC        string `json:"bic"`
	BankName   string `json:"bankName"`
	Country    string `json:"country"`
	City       string `json:"city"`
}

// Request describes a payout from a source wallet to a bank account.
// Field rules live in Policy.Validate so every entry point reports the
// same codes and messages.
type Request struct {
	Amount         string      `json:"amount"`
	Currency       string      `json:"currency"`
	SourceWalletID string      `json:"sourceWalletId"`
	Destination    BankAccount `json:"destination"`
	Description    string      `json:"description,omitempty"`
	// IdempotencyKey deduplicates submissions; one is generated when empty.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Result is returned by a provider when a payout has been accepted.
type Result struct {
	ID               string     `json:"id"`
	Status           Status     `json:"status"`
	Amount           string     `json:"amount"`
	Currency         string     `json:"currency"`
	Fee              string     `json:"fee,omitempty"`
	SourceWalletID   string     `json:"sourceWalletId"`
	TrackingRef      string     `json:"trackingRef,omitempty"`
	Provider         string     `json:"provider"`
	CreatedAt        time.Time  `json:"createDate"`
	UpdatedAt        time.Time  `json:"updateDate"`
	EstimatedArrival *time.Time `json:"estimatedArrival,omitempty"`
}

// StatusReport is the answer to a status query.
type StatusReport struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createDate"`
	UpdatedAt time.Time `json:"updateDate"`
}

// Report builds the status view of a result.
func (r *Result) Report() *StatusReport {
	return &StatusReport{
		ID:        r.ID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
