package payout

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
)

// Memory is an in-process repository used when no database is configured.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*repo.Record
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*repo.Record)}
}

func (m *Memory) Create(_ context.Context, rec *repo.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*repo.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) GetByIdempotencyKey(_ context.Context, key string) (*repo.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.IdempotencyKey == key && rec.Status != payout.StatusFailed {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *Memory) UpdateStatus(_ context.Context, id string, status payout.Status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return repo.ErrNotFound
	}
	rec.Status = status
	if reason != "" {
		rec.FailureReason = reason
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) ListByWallet(_ context.Context, walletID string, limit int) ([]*repo.Record, error) {
	m.mu.RLock()
	var out []*repo.Record
	for _, rec := range m.records {
		if rec.SourceWalletID == walletID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *repo.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repo.Repository = (*Memory)(nil)
