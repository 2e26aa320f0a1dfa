package eventbus

import (
	"testing"

	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_DecodesConcreteEvent(t *testing.T) {
	t.Parallel()
	in := events.PayoutStatusChanged{
		FlowEvent: events.NewFlowEvent("payout-42", events.WithIdempotencyKey("idem-1")),
		From:      payout.StatusPending,
		To:        payout.StatusComplete,
	}

	raw, err := encodeEnvelope(in)
	require.NoError(t, err)

	out, err := decodeEnvelope(raw)
	require.NoError(t, err)
	got, ok := out.(*events.PayoutStatusChanged)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "payout-42", got.PayoutID)
	assert.Equal(t, "idem-1", got.IdempotencyKey)
	assert.Equal(t, payout.StatusComplete, got.To)
}

func TestEnvelope_UnknownType(t *testing.T) {
	t.Parallel()
	_, err := decodeEnvelope([]byte(`{"type":"account.opened","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, err = decodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestNaming(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "stealthmoney:payout:created", streamNameFor("stealthmoney", events.EventTypePayoutCreated))
	assert.Equal(t, "stealthmoney:dlq:payout:status_changed", dlqStreamName("stealthmoney", events.EventTypePayoutStatusChanged))
	assert.Equal(t, "stealthmoney.events.payout.failed", topicNameFor("", events.EventTypePayoutFailed))
	assert.Equal(t, "acme.dlq.payout.failed", dlqTopicNameFor("acme", events.EventTypePayoutFailed))
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092, ,b:9092 "))
}

func TestMessageKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "payout-7", messageKey(events.PayoutCreated{FlowEvent: events.NewFlowEvent("payout-7")}))
	assert.Equal(t, "payout-7", messageKey(&events.PayoutFailed{FlowEvent: events.NewFlowEvent("payout-7")}))
	assert.Equal(t, "payout.failed", messageKey(events.PayoutFailed{}))
}

func TestNewWithKafka_Validation(t *testing.T) {
	t.Parallel()
	_, err := NewWithKafka(" , ", discardLogger(), nil)
	assert.Error(t, err)

	_, err = NewWithKafka("localhost:9092", discardLogger(), &KafkaEventBusConfig{SASLUsername: "user"})
	assert.Error(t, err)

	bus, err := NewWithKafka("localhost:9092", discardLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, "stealthmoney", bus.config.GroupID)
	require.NoError(t, bus.Close())
}
