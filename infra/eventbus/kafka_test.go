//go:build kafka

package eventbus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupKafkaBus(tb testing.TB) *KafkaEventBus {
	tb.Helper()
	brokers := os.Getenv("KAFKA_TEST_BROKERS")
	if brokers == "" {
		tb.Skip("KAFKA_TEST_BROKERS not set")
	}
	bus, err := NewWithKafka(brokers, discardLogger(), &KafkaEventBusConfig{
		GroupID:     "test-" + uuid.NewString(),
		TopicPrefix: "test." + uuid.NewString()[:8],
	})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestKafkaBusHandlerReceivesEvent(t *testing.T) {
	bus := setupKafkaBus(t)

	received := make(chan string, 1)
	bus.Register(events.EventTypePayoutCreated, func(_ context.Context, e events.Event) error {
		received <- e.(*events.PayoutCreated).PayoutID
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, bus.Emit(ctx, events.PayoutCreated{
		FlowEvent: events.NewFlowEvent("payout-kafka"),
		Status:    payout.StatusPending,
	}))

	select {
	case id := <-received:
		require.Equal(t, "payout-kafka", id)
	case <-time.After(30 * time.Second):
		t.Fatal("did not receive event in time")
	}
}
