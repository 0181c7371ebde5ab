package notification

import "context"

// Publisher is the outbound port for notifications and domain events.
// Publish is at-most-once from the caller's perspective: no delivery
// acknowledgment is awaited beyond handing the message to the transport.
type Publisher interface {
	Publish(ctx context.Context, channel, key string, payload map[string]any) error
}

// NopPublisher discards everything. Useful when the event side channel is
// disabled in configuration.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, channel, key string, payload map[string]any) error {
	return nil
}
