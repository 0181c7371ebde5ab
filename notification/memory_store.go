package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory inbox for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Notification
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory inbox store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Notification),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Save(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *n
	m.records[n.ID] = &c
	return nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.list(userID, false), nil
}

func (m *MemoryStore) ListUnread(ctx context.Context, userID string) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.list(userID, true), nil
}

func (m *MemoryStore) CountUnread(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, n := range m.records {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) MarkRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.records[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}

	now := m.now()
	n.Read = true
	n.ReadAt = &now
	return nil
}

func (m *MemoryStore) MarkAllRead(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, n := range m.records {
		if n.UserID == userID && !n.Read {
			n.Read = true
			readAt := now
			n.ReadAt = &readAt
		}
	}
	return nil
}

// list assumes the caller holds at least a read lock.
func (m *MemoryStore) list(userID string, unreadOnly bool) []*Notification {
	var out []*Notification
	for _, n := range m.records {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		c := *n
		if n.ReadAt != nil {
			readAt := *n.ReadAt
			c.ReadAt = &readAt
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
