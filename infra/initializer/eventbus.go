package initializer

import (
	"fmt"
	"log/slog"

	infra_eventbus "github.com/amirasaad/stealthmoney/infra/eventbus"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/pkg/eventbus"
)

func noClose() error { return nil }

// initEventBus builds the bus selected by EVENTBUS_DRIVER. An unreachable
// Redis falls back to the in-memory bus.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, func() error, error) {
	switch cfg.EventBus.Driver {
	case "", "memory":
		return infra_eventbus.NewWithMemory(logger), noClose, nil

	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, nil, fmt.Errorf("redis event bus: REDIS_URL is required")
		}
		client, err := newRedisClient(cfg.Redis)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to memory", "error", err)
			return infra_eventbus.NewWithMemory(logger), noClose, nil
		}
		bus := infra_eventbus.NewWithRedisClient(client, logger, &infra_eventbus.RedisEventBusConfig{
			StreamPrefix: cfg.EventBus.RedisStreamPrefix,
			Group:        cfg.EventBus.RedisGroup,
		})
		return bus, bus.Close, nil

	case "kafka":
		bus, err := infra_eventbus.NewWithKafka(cfg.EventBus.KafkaBrokers, logger, &infra_eventbus.KafkaEventBusConfig{
			GroupID:      cfg.EventBus.KafkaGroupID,
			TopicPrefix:  cfg.EventBus.KafkaTopicPrefix,
			SASLUsername: cfg.EventBus.KafkaSASLUsername,
			SASLPassword: cfg.EventBus.KafkaSASLPassword,
			TLSEnabled:   cfg.EventBus.KafkaTLS,
		})
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.EventBus.Driver)
}
