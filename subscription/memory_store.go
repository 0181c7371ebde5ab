package subscription

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store and PlanStore implementation for local
// development and tests. Entities are deep-copied on the way in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	subs  map[string]*Subscription
	plans map[string]*Plan
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs:  make(map[string]*Subscription),
		plans: make(map[string]*Plan),
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySubscription(s), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[s.ID] = copySubscription(s)
	return nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, copySubscription(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) FindByUserAndStatus(ctx context.Context, userID string, status Status) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.subs {
		if s.UserID == userID && s.Status == status {
			return copySubscription(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ExistsActive(ctx context.Context, userID, planID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.subs {
		if s.UserID == userID && s.PlanID == planID && s.Status == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) DueForRenewal(ctx context.Context, now time.Time) ([]*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Subscription
	for _, s := range m.subs {
		if s.IsActive() && s.NextBillingDate != nil && s.NextBillingDate.Before(now) {
			out = append(out, copySubscription(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) TrialsEnding(ctx context.Context, now time.Time) ([]*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Subscription
	for _, s := range m.subs {
		if s.IsTrialing() && s.TrialEndDate != nil && s.TrialEndDate.Before(now) {
			out = append(out, copySubscription(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PlanStore implementation.

func (m *MemoryStore) GetPlan(ctx context.Context, id string) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return copyPlan(p), nil
}

func (m *MemoryStore) GetPlanByCode(ctx context.Context, code string) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.plans {
		if p.Code == code {
			return copyPlan(p), nil
		}
	}
	return nil, ErrPlanNotFound
}

func (m *MemoryStore) PlanExistsByCode(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.plans {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListPlans(ctx context.Context) ([]*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, copyPlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *MemoryStore) ListActivePlans(ctx context.Context) ([]*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Plan
	for _, p := range m.plans {
		if p.IsActive {
			out = append(out, copyPlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *MemoryStore) SavePlan(ctx context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plans[p.ID] = copyPlan(p)
	return nil
}

func (m *MemoryStore) DeletePlan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[id]; !ok {
		return ErrPlanNotFound
	}
	delete(m.plans, id)
	return nil
}

// Plans adapts the MemoryStore to the PlanStore interface, which shares
// method names with Store.
func (m *MemoryStore) Plans() PlanStore {
	return &memoryPlanStore{store: m}
}

type memoryPlanStore struct {
	store *MemoryStore
}

func (m *memoryPlanStore) Get(ctx context.Context, id string) (*Plan, error) {
	return m.store.GetPlan(ctx, id)
}

func (m *memoryPlanStore) GetByCode(ctx context.Context, code string) (*Plan, error) {
	return m.store.GetPlanByCode(ctx, code)
}

func (m *memoryPlanStore) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return m.store.PlanExistsByCode(ctx, code)
}

func (m *memoryPlanStore) List(ctx context.Context) ([]*Plan, error) {
	return m.store.ListPlans(ctx)
}

func (m *memoryPlanStore) ListActive(ctx context.Context) ([]*Plan, error) {
	return m.store.ListActivePlans(ctx)
}

func (m *memoryPlanStore) Save(ctx context.Context, p *Plan) error {
	return m.store.SavePlan(ctx, p)
}

func (m *memoryPlanStore) Delete(ctx context.Context, id string) error {
	return m.store.DeletePlan(ctx, id)
}

func copySubscription(s *Subscription) *Subscription {
	c := *s
	if s.NextBillingDate != nil {
		next := *s.NextBillingDate
		c.NextBillingDate = &next
	}
	if s.TrialEndDate != nil {
		trialEnd := *s.TrialEndDate
		c.TrialEndDate = &trialEnd
	}
	return &c
}

func copyPlan(p *Plan) *Plan {
	c := *p
	return &c
}
