//go:build integration

package payout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgres starts Postgres, applies the migrations and returns a
// repository on it.
func setupPostgres(t *testing.T) repo.Repository {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "secret",
				"POSTGRES_DB":       "payouts",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/payouts?sslmode=disable", host, port.Port())
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))
	return New(db)
}

func stored(id, wallet string, status payout.Status, at time.Time) *repo.Record {
	return &repo.Record{
		ID:             id,
		Provider:       "simulated",
		Status:         status,
		Amount:         "100.50",
		Currency:       "EUR",
		SourceWalletID: wallet,
		HolderName:     "Max Mustermann",
		IBANLast4:      "3000",
		BIC:            "COBADEFFXXX",
		Country:        "DE",
		IdempotencyKey: "idem-" + id,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestPostgresRepository(t *testing.T) {
	r := setupPostgres(t)
	ctx := t.Context()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, stored("payout-1", "wallet-1", payout.StatusPending, base)))
	require.NoError(t, r.Create(ctx, stored("payout-2", "wallet-1", payout.StatusPending, base.Add(time.Minute))))
	require.NoError(t, r.Create(ctx, stored("payout-3", "wallet-2", payout.StatusPending, base)))

	got, err := r.Get(ctx, "payout-1")
	require.NoError(t, err)
	assert.Equal(t, "100.50", got.Amount)
	assert.Equal(t, "wallet-1", got.SourceWalletID)
	assert.True(t, base.Equal(got.CreatedAt))

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	byKey, err := r.GetByIdempotencyKey(ctx, "idem-payout-2")
	require.NoError(t, err)
	assert.Equal(t, "payout-2", byKey.ID)

	require.NoError(t, r.UpdateStatus(ctx, "payout-2", payout.StatusFailed, "account closed"))
	_, err = r.GetByIdempotencyKey(ctx, "idem-payout-2")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	failed, err := r.Get(ctx, "payout-2")
	require.NoError(t, err)
	assert.Equal(t, payout.StatusFailed, failed.Status)
	assert.Equal(t, "account closed", failed.Report().Reason)

	assert.ErrorIs(t, r.UpdateStatus(ctx, "missing", payout.StatusComplete, ""), repo.ErrNotFound)

	list, err := r.ListByWallet(ctx, "wallet-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "payout-2", list[0].ID)
	assert.Equal(t, "payout-1", list[1].ID)
}
