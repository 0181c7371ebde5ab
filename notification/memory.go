package notification

import (
	"context"
	"sync"
)

// PublishedMessage is a message captured by MemoryPublisher.
type PublishedMessage struct {
	Channel string
	Key     string
	Payload map[string]any
}

// MemoryPublisher records published messages in memory. Intended for tests
// and for running without a message broker.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (m *MemoryPublisher) Publish(ctx context.Context, channel, key string, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, PublishedMessage{Channel: channel, Key: key, Payload: payload})
	return nil
}

// Messages returns all captured messages for the channel, in publish order.
func (m *MemoryPublisher) Messages(channel string) []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PublishedMessage
	for _, msg := range m.messages {
		if msg.Channel == channel {
			out = append(out, msg)
		}
	}
	return out
}

// All returns every captured message regardless of channel.
func (m *MemoryPublisher) All() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PublishedMessage, len(m.messages))
	copy(out, m.messages)
	return out
}
