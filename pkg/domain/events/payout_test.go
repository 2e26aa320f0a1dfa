package events

import (
	"encoding/json"
	"testing"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlowEvent(t *testing.T) {
	corr := uuid.New()
	e := NewFlowEvent("payout-1", WithCorrelationID(corr), WithIdempotencyKey("idem-1"))

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, corr, e.CorrelationID)
	assert.Equal(t, "payout-1", e.Key())
	assert.Equal(t, "idem-1", e.IdempotencyKey)
	assert.False(t, e.Timestamp.IsZero())
}

func TestEventTypes_DecodeEveryPayoutEvent(t *testing.T) {
	emitted := []Event{
		&PayoutCreated{FlowEvent: NewFlowEvent("p-1"), Status: payout.StatusPending, Amount: "10.00"},
		&PayoutFailed{FlowEvent: NewFlowEvent("p-2"), Code: payout.CodeTimeout, Retryable: true},
		&PayoutStatusChanged{FlowEvent: NewFlowEvent("p-3"), From: payout.StatusPending, To: payout.StatusComplete},
	}
	for _, e := range emitted {
		t.Run(e.Type(), func(t *testing.T) {
			ctor, ok := EventTypes[e.Type()]
			require.True(t, ok)

			raw, err := json.Marshal(e)
			require.NoError(t, err)
			decoded := ctor()
			require.NoError(t, json.Unmarshal(raw, decoded))
			assert.Equal(t, e, decoded)
		})
	}
}
