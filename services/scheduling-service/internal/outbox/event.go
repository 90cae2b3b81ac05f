package outbox

// Event is a row to be written to outbox_events. The Kafka topic equals
// EventType, one topic per event type.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const EventBookingConfirmed = "booking.confirmed.v1"
