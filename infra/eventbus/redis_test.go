//go:build integration

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisBus starts a Redis container and returns a bus on a fresh
// stream prefix.
func setupRedisBus(t *testing.T) *RedisEventBus {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.0.5",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "redis")
	require.NoError(t, err)

	bus, err := NewWithRedis(endpoint, discardLogger(), &RedisEventBusConfig{
		StreamPrefix: "test-" + uuid.NewString(),
		Group:        "test",
		Block:        200 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisBusHandlerReceivesEvent(t *testing.T) {
	bus := setupRedisBus(t)

	received := make(chan string, 1)
	bus.Register(events.EventTypePayoutStatusChanged, func(_ context.Context, e events.Event) error {
		received <- e.(*events.PayoutStatusChanged).PayoutID
		return nil
	})

	err := bus.Emit(context.Background(), events.PayoutStatusChanged{
		FlowEvent: events.NewFlowEvent("payout-redis"),
		From:      payout.StatusPending,
		To:        payout.StatusComplete,
	})
	require.NoError(t, err)

	select {
	case id := <-received:
		require.Equal(t, "payout-redis", id)
	case <-time.After(5 * time.Second):
		t.Fatal("did not receive event in time")
	}
}
