package params

import (
	"context"
	"fmt"
	"sync"
)

// Resolver wraps a Store with a process-lifetime cache.
//
// The cache is never invalidated within a process: webhook processes are
// short-lived and parameter rotation takes effect on the next deploy.
// Concurrent resolution of the same name may cause a redundant store fetch;
// both fetches read the same source of truth, so last-write-wins is safe.
type Resolver struct {
	store Store

	mu    sync.RWMutex
	cache map[string]string
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, cache: make(map[string]string)}
}

// Resolve returns values for all requested names, fetching uncached names
// from the store in a single batch. It fails with ErrConfigUnavailable if
// any name cannot be served.
func (r *Resolver) Resolve(ctx context.Context, names ...string) (map[string]string, error) {
	if r.store == nil {
		return nil, fmt.Errorf("%w: no store configured", ErrConfigUnavailable)
	}

	out := make(map[string]string, len(names))
	var misses []string

	r.mu.RLock()
	for _, name := range names {
		if v, ok := r.cache[name]; ok {
			out[name] = v
		} else {
			misses = append(misses, name)
		}
	}
	r.mu.RUnlock()

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := r.store.Fetch(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, name := range misses {
		v, ok := fetched[name]
		if !ok {
			return nil, missingError([]string{name})
		}
		out[name] = v
	}

	r.mu.Lock()
	for name, v := range fetched {
		r.cache[name] = v
	}
	r.mu.Unlock()

	return out, nil
}
