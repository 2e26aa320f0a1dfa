package events

// EventType represents the type of an event in the system.
type EventType string

const (
	EventTypePayoutCreated       EventType = "payout.created"
	EventTypePayoutFailed        EventType = "payout.failed"
	EventTypePayoutStatusChanged EventType = "payout.status_changed"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}
