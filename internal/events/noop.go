package events

import "context"

// NoopPublisher is a Publisher that drops every event (used when
// PROOFGRAPH_NATS_URL is not set).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return ctx.Err()
}

func (n *NoopPublisher) Close() error {
	return nil
}
