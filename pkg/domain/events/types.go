package events

// EventTypes maps an event type to a constructor of its zero value. Bus
// consumers use it to decode envelopes.
var EventTypes = map[string]func() Event{
	EventTypePayoutCreated.String():       func() Event { return &PayoutCreated{} },
	EventTypePayoutFailed.String():        func() Event { return &PayoutFailed{} },
	EventTypePayoutStatusChanged.String(): func() Event { return &PayoutStatusChanged{} },
}
