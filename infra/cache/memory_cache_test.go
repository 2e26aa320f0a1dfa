package cache

import (
	"testing"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Status(t *testing.T) {
	c := NewMemoryCache()
	t.Cleanup(c.Close)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	got, err := c.Get(t.Context(), "p-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	report := &payout.StatusReport{ID: "p-1", Status: payout.StatusPending}
	require.NoError(t, c.Set(t.Context(), report, time.Minute))
	report.Status = payout.StatusFailed

	got, err = c.Get(t.Context(), "p-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payout.StatusPending, got.Status)

	now = now.Add(time.Minute)
	got, err = c.Get(t.Context(), "p-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(t.Context(), &payout.StatusReport{ID: "p-2"}, 0))
	require.NoError(t, c.Delete(t.Context(), "p-2"))
	got, _ = c.Get(t.Context(), "p-2")
	assert.Nil(t, got)
}

func TestMemoryCache_Keys(t *testing.T) {
	c := NewMemoryCache()
	t.Cleanup(c.Close)
	now := time.Now()
	c.now = func() time.Time { return now }

	id, err := c.GetKey(t.Context(), "idem")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, c.SetKey(t.Context(), "idem", "payout-1", time.Hour))
	id, err = c.GetKey(t.Context(), "idem")
	require.NoError(t, err)
	assert.Equal(t, "payout-1", id)

	now = now.Add(2 * time.Hour)
	c.purge()
	id, _ = c.GetKey(t.Context(), "idem")
	assert.Empty(t, id)
	assert.Empty(t, c.keys)
}
