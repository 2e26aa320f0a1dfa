// Package payout stores payout records with gorm, or in memory when no
// database is configured.
package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a gorm-backed payout repository.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements payout.Repository.
func (r *repository) Create(ctx context.Context, rec *repo.Record) error {
	m := toModel(rec)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create payout %s: %w", rec.ID, err)
	}
	return nil
}

// Get implements payout.Repository.
func (r *repository) Get(ctx context.Context, id string) (*repo.Record, error) {
	var m Payout
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return toRecord(&m), nil
}

// GetByIdempotencyKey implements payout.Repository. Failed attempts stored
// under the same key are ignored so the key can be resubmitted.
func (r *repository) GetByIdempotencyKey(ctx context.Context, key string) (*repo.Record, error) {
	var m Payout
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND status <> ?", key, string(payout.StatusFailed)).
		First(&m).Error
	if err != nil {
		return nil, mapError(err)
	}
	return toRecord(&m), nil
}

// UpdateStatus implements payout.Repository.
func (r *repository) UpdateStatus(ctx context.Context, id string, status payout.Status, reason string) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if reason != "" {
		updates["failure_reason"] = reason
	}
	res := r.db.WithContext(ctx).Model(&Payout{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update payout %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ListByWallet implements payout.Repository.
func (r *repository) ListByWallet(ctx context.Context, walletID string, limit int) ([]*repo.Record, error) {
	var rows []Payout
	q := r.db.WithContext(ctx).Where("source_wallet_id = ?", walletID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list payouts of wallet %s: %w", walletID, err)
	}
	out := make([]*repo.Record, 0, len(rows))
	for i := range rows {
		out = append(out, toRecord(&rows[i]))
	}
	return out, nil
}

func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	return err
}
