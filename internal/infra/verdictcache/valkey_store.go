package verdictcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
)

// ValkeyStore persists verdicts using a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new cache backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "dupcheck"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (dedup.CachedVerdict, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return dedup.CachedVerdict{}, false, nil
		}
		return dedup.CachedVerdict{}, false, err
	}
	var verdict dedup.CachedVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return dedup.CachedVerdict{}, false, err
	}
	return verdict, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, key string, verdict dedup.CachedVerdict, ttl time.Duration) error {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload))
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

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:verdict:%s", s.prefix, key)
}

var _ dedup.VerdictCache = (*ValkeyStore)(nil)
