package events

// Message is one event as received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// Event decodes the payload into its typed event.
func (m Message) Event() (any, error) {
	return Decode(m.Topic, m.Data)
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}
