package params

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore serves parameters from Redis string keys, namespaced as
// /{system}/{env}/{name}. The whole batch is one MGET round trip.
type RedisStore struct {
	rdb *redis.Client
	ns  Namespace
}

func NewRedisStore(rdb *redis.Client, ns Namespace) *RedisStore {
	return &RedisStore{rdb: rdb, ns: ns}
}

func (s *RedisStore) Fetch(ctx context.Context, names []string) (map[string]string, error) {
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.ns.Key(name)
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis mget: %v", ErrConfigUnavailable, err)
	}

	out := make(map[string]string, len(names))
	var missing []string
	for i, v := range vals {
		str, ok := v.(string)
		if !ok || str == "" {
			missing = append(missing, names[i])
			continue
		}
		out[names[i]] = str
	}
	if len(missing) > 0 {
		return nil, missingError(missing)
	}
	return out, nil
}
