package statcache

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openrx/admatch/internal/domain/stats"
)

// ValkeyStore caches serialized aggregation results in a Valkey-compatible
// database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a cache backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "admatch"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get implements stats.Cache.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := s.client.B().Get().Key(s.prefix + ":" + key).Build()
	payload, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

// Set implements stats.Cache.
func (s *ValkeyStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	builder := s.client.B().Set().Key(s.prefix + ":" + key).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

var _ stats.Cache = (*ValkeyStore)(nil)
