package payout

import (
	"github.com/amirasaad/stealthmoney/pkg/payout"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
)

func newRecord(req *payout.Request, res *payout.Result) *repo.Record {
	iban := payout.NormalizeIBAN(req.Destination.IBAN)
	if len(iban) > 4 {
		iban = iban[len(iban)-4:]
	}
	return &repo.Record{
		ID:               res.ID,
		Provider:         res.Provider,
		Status:           res.Status,
		Amount:           res.Amount,
		Currency:         res.Currency,
		Fee:              res.Fee,
		SourceWalletID:   req.SourceWalletID,
		HolderName:       req.Destination.HolderName,
		IBANLast4:        iban,
		BIC:              payout.NormalizeBIC(req.Destination.BIC),
		Country:          req.Destination.Country,
		TrackingRef:      res.TrackingRef,
		IdempotencyKey:   req.IdempotencyKey,
		EstimatedArrival: res.EstimatedArrival,
		CreatedAt:        res.CreatedAt,
		UpdatedAt:        res.UpdatedAt,
	}
}

func toResult(rec *repo.Record) *payout.Result {
	return &payout.Result{
		ID:               rec.ID,
		Status:           rec.Status,
		Amount:           rec.Amount,
		Currency:         rec.Currency,
		Fee:              rec.Fee,
		SourceWalletID:   rec.SourceWalletID,
		TrackingRef:      rec.TrackingRef,
		Provider:         rec.Provider,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
		EstimatedArrival: rec.EstimatedArrival,
	}
}
