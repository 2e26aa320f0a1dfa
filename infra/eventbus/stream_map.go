package eventbus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/stealthmoney/pkg/domain/events"
)

// ErrUnknownEventType is returned when an envelope names no registered event.
var ErrUnknownEventType = errors.New("unknown event type")

func streamNameFor(prefix string, eventType events.EventType) string {
	return nameFor(prefix, eventType)
}

func dlqStreamName(prefix string, eventType events.EventType) string {
	return nameFor(prefix+":dlq", eventType)
}

func nameFor(prefix string, eventType events.EventType) string {
	parts := strings.Split(eventType.String(), ".")
	if len(parts) == 2 {
		return fmt.Sprintf(
			"%s:%s:%s",
			prefix,
			strings.ToLower(parts[0]),
			strings.ToLower(parts[1]))
	}
	return fmt.Sprintf("%s:%s", prefix, strings.ToLower(eventType.String()))
}
