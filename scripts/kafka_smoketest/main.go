// Command kafka_smoketest publishes a payout event on the Kafka event bus
// and waits for it to come back through a consumer group.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	infra_eventbus "github.com/amirasaad/stealthmoney/infra/eventbus"
	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// RunSmokeTest creates the topic, emits one PayoutCreated and returns once
// a subscriber received it.
func RunSmokeTest(ctx context.Context, logger *slog.Logger) error {
	brokers := envOr("BROKERS", "localhost:9092")
	prefix := envOr("TOPIC_PREFIX", "stealthmoney.smoketest")
	topic := prefix + "." + events.EventTypePayoutCreated.String()

	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", strings.Split(brokers, ",")[0])
	if err != nil {
		return err
	}
	err = conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	_ = conn.Close()
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) &&
		!strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return err
	}
	logger.Info("topic ready", "topic", topic)

	bus, err := infra_eventbus.NewWithKafka(brokers, logger, &infra_eventbus.KafkaEventBusConfig{
		GroupID:     "smoketest-" + uuid.NewString()[:8],
		TopicPrefix: prefix,
	})
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := "smoke-" + uuid.NewString()
	received := make(chan string, 1)
	bus.Register(events.EventTypePayoutCreated, func(_ context.Context, e events.Event) error {
		if pc, ok := e.(*events.PayoutCreated); ok && pc.PayoutID == want {
			select {
			case received <- pc.PayoutID:
			default:
			}
		}
		return nil
	})

	err = bus.Emit(ctx, &events.PayoutCreated{
		FlowEvent: events.NewFlowEvent(want),
		Provider:  "smoketest",
		Status:    payout.StatusPending,
		Amount:    "1.00",
		Currency:  "EUR",
	})
	if err != nil {
		return err
	}
	logger.Info("emitted", "payout_id", want)

	select {
	case id := <-received:
		logger.Info("consumed", "payout_id", id)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := RunSmokeTest(ctx, logger); err != nil {
		logger.Error("kafka smoke test failed", "error", err)
		os.Exit(1)
	}
	logger.Info("kafka smoke test passed")
}
