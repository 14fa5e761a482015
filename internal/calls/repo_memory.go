package calls

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory append-only repository useful for tests and
// local runs. It is not intended for production use.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryRepo) Latest(_ context.Context, callSid string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *Event
	for i := range r.events {
		e := r.events[i]
		if e.CallSid != callSid {
			continue
		}
		if found == nil || e.OccurredAt.After(found.OccurredAt) {
			found = &e
		}
	}
	if found == nil {
		return Event{}, ErrNotFound
	}
	return *found, nil
}

func (r *MemoryRepo) List(_ context.Context, q ListQuery) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Event
	for _, e := range r.events {
		if e.OccurredAt.Before(q.Start) || !e.OccurredAt.Before(q.End) {
			continue
		}
		if q.Caller != "" && e.Caller != q.Caller {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}
