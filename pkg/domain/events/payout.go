// Package events defines the payout lifecycle events published on the bus.
package events

import (
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/google/uuid"
)

// Event is anything that can be published on the event bus.
type Event interface {
	Type() string
}

// FlowEvent carries the fields shared by every payout event.
type FlowEvent struct {
	ID             uuid.UUID `json:"id"`
	CorrelationID  uuid.UUID `json:"correlationId"`
	PayoutID       string    `json:"payoutId"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// FlowEventOpt customises a FlowEvent.
type FlowEventOpt func(*FlowEvent)

// WithCorrelationID links the event to the flow that produced it.
func WithCorrelationID(id uuid.UUID) FlowEventOpt {
	return func(e *FlowEvent) { e.CorrelationID = id }
}

// WithIdempotencyKey records the submission key of the payout.
func WithIdempotencyKey(key string) FlowEventOpt {
	return func(e *FlowEvent) { e.IdempotencyKey = key }
}

// NewFlowEvent builds a FlowEvent with a fresh id and timestamp.
func NewFlowEvent(payoutID string, opts ...FlowEventOpt) FlowEvent {
	e := FlowEvent{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		PayoutID:      payoutID,
		Timestamp:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Key partitions events of one payout together.
func (e FlowEvent) Key() string { return e.PayoutID }

// PayoutCreated is emitted once a provider accepted a payout.
type PayoutCreated struct {
	FlowEvent
	Provider       string        `json:"provider"`
	Status         payout.Status `json:"status"`
	Amount         string        `json:"amount"`
	Currency       string        `json:"currency"`
	SourceWalletID string        `json:"sourceWalletId"`
	TrackingRef    string        `json:"trackingRef,omitempty"`
}

func (e PayoutCreated) Type() string { return EventTypePayoutCreated.String() }

// PayoutFailed is emitted when a payout could not be created.
type PayoutFailed struct {
	FlowEvent
	Provider  string      `json:"provider,omitempty"`
	Code      payout.Code `json:"code"`
	Reason    string      `json:"reason"`
	Retryable bool        `json:"retryable"`
	Attempted bool        `json:"attempted"`
}

func (e PayoutFailed) Type() string { return EventTypePayoutFailed.String() }

// PayoutStatusChanged is emitted when a stored payout moves to a new status.
type PayoutStatusChanged struct {
	FlowEvent
	From   payout.Status `json:"from"`
	To     payout.Status `json:"to"`
	Reason string        `json:"reason,omitempty"`
}

func (e PayoutStatusChanged) Type() string { return EventTypePayoutStatusChanged.String() }
