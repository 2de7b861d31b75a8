package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// All flags live in one hash, field = flag key.
const hashKey = "gasless:flags"

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, key string, value bool, reason string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	flag := &Flag{Key: key, Value: value, Reason: reason, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(flag)
	if err != nil {
		return nil, fmt.Errorf("marshal flag: %w", err)
	}

	if err := s.client.HSet(ctx, hashKey, key, b).Err(); err != nil {
		return nil, fmt.Errorf("set flag: %w", err)
	}
	return flag, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	val, err := s.client.HGet(ctx, hashKey, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flag: %w", err)
	}

	var f Flag
	if err := json.Unmarshal([]byte(val), &f); err != nil {
		return nil, fmt.Errorf("unmarshal flag: %w", err)
	}
	return &f, nil
}

// Enabled reports the flag's value, or def when it has never been set.
// Redis errors are returned together with def.
func (s *Store) Enabled(ctx context.Context, key string, def bool) (bool, error) {
	f, err := s.Get(ctx, key)
	if err == ErrNotFound {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return f.Value, nil
}

// List returns every flag sorted by key. Entries that fail to decode are skipped.
func (s *Store) List(ctx context.Context) ([]*Flag, error) {
	all, err := s.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	out := make([]*Flag, 0, len(all))
	for k, v := range all {
		if ValidateKey(k) != nil {
			continue
		}
		var f Flag
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			continue
		}
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, hashKey, key).Err(); err != nil {
		return fmt.Errorf("delete flag: %w", err)
	}
	return nil
}
