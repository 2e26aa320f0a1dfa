// Package payout defines the persistence boundary for payout records.
package payout

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("payout record not found")

// Record is the stored view of a payout. Only the last four IBAN
// characters are kept.
type Record struct {
	ID               string
	Provider         string
	Status           payout.Status
	Amount           string
	Currency         string
	Fee              string
	SourceWalletID   string
	HolderName       string
	IBANLast4        string
	BIC              string
	Country          string
	TrackingRef      string
	IdempotencyKey   string
	FailureCode      string
	FailureReason    string
	EstimatedArrival *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Report builds the status view of the record.
func (r *Record) Report() *payout.StatusReport {
	reason := r.FailureReason
	if reason == "" {
		reason = r.FailureCode
	}
	return &payout.StatusReport{
		ID:        r.ID,
		Status:    r.Status,
		Reason:    reason,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Repository defines payout record access.
type Repository interface {
	// Create inserts a new record.
	Create(ctx context.Context, rec *Record) error

	// Get returns the record with the given payout id.
	Get(ctx context.Context, id string) (*Record, error)

	// GetByIdempotencyKey returns the successful record created for key.
	GetByIdempotencyKey(ctx context.Context, key string) (*Record, error)

	// UpdateStatus moves a record to status, recording reason when set.
	UpdateStatus(ctx context.Context, id string, status payout.Status, reason string) error

	// ListByWallet returns the most recent records of a source wallet.
	ListByWallet(ctx context.Context, walletID string, limit int) ([]*Record, error)
}
