package params

import "context"

// StaticStore serves parameters from an in-memory map. It backs local runs
// and tests; production deployments use Redis or Vault.
type StaticStore struct {
	values map[string]string
}

func NewStaticStore(values map[string]string) *StaticStore {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &StaticStore{values: cp}
}

func (s *StaticStore) Fetch(_ context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v, ok := s.values[name]
		if !ok || v == "" {
			missing = append(missing, name)
			continue
		}
		out[name] = v
	}
	if len(missing) > 0 {
		return nil, missingError(missing)
	}
	return out, nil
}
