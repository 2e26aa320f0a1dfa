package payout

import (
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
)

// Payout represents a payout row.
type Payout struct {
	ID               string `gorm:"type:varchar(64);primaryKey"`
	Provider         string `gorm:"type:varchar(32);not null"`
	Status           string `gorm:"type:varchar(16);not null;index"`
	Amount           string `gorm:"type:numeric(18,2);not null"`
	Currency         string `gorm:"type:varchar(3);not null"`
	Fee              string `gorm:"type:varchar(32)"`
	SourceWalletID   string `gorm:"type:varchar(64);not null;index"`
	HolderName       string `gorm:"type:varchar(255)"`
	IBANLast4        string `gorm:"column:iban_last4;type:varchar(4)"`
	BIC              string `gorm:"column:bic;type:varchar(11)"`
	Country          string `gorm:"type:varchar(2)"`
	TrackingRef      string `gorm:"type:varchar(64)"`
	IdempotencyKey   string `gorm:"type:varchar(128);index"`
	FailureCode      string `gorm:"type:varchar(64)"`
	FailureReason    string `gorm:"type:text"`
	EstimatedArrival *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for the Payout model.
func (Payout) TableName() string {
	return "payouts"
}

func toModel(r *repo.Record) *Payout {
	return &Payout{
		ID:               r.ID,
		Provider:         r.Provider,
		Status:           string(r.Status),
		Amount:           r.Amount,
		Currency:         r.Currency,
		Fee:              r.Fee,
		SourceWalletID:   r.SourceWalletID,
		HolderName:       r.HolderName,
		IBANLast4:        r.IBANLast4,
		BIC:              r.BIC,
		Country:          r.Country,
		TrackingRef:      r.TrackingRef,
		IdempotencyKey:   r.IdempotencyKey,
		FailureCode:      r.FailureCode,
		FailureReason:    r.FailureReason,
		EstimatedArrival: r.EstimatedArrival,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func toRecord(m *Payout) *repo.Record {
	return &repo.Record{
		ID:               m.ID,
		Provider:         m.Provider,
		Status:           payout.Status(m.Status),
		Amount:           m.Amount,
		Currency:         m.Currency,
		Fee:              m.Fee,
		SourceWalletID:   m.SourceWalletID,
		HolderName:       m.HolderName,
		IBANLast4:        m.IBANLast4,
		BIC:              m.BIC,
		Country:          m.Country,
		TrackingRef:      m.TrackingRef,
		IdempotencyKey:   m.IdempotencyKey,
		FailureCode:      m.FailureCode,
		FailureReason:    m.FailureReason,
		EstimatedArrival: m.EstimatedArrival,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
