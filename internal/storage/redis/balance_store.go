package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PxPatel/trading-system/internal/types"
)

const balanceKeyPrefix = "balance:"

// RedisBalanceStore keeps the latest balance snapshot per (user, token) as a
// plain key, mirroring the order store's upsert-by-key approach.
type RedisBalanceStore struct {
	client *redis.Client
}

// NewRedisBalanceStore creates a new Redis-backed balance snapshot store.
func NewRedisBalanceStore(cfg RedisConfig) (*RedisBalanceStore, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisBalanceStore{client: client}, nil
}

func (s *RedisBalanceStore) key(user, token string) string {
	return fmt.Sprintf("%s%s:%s", balanceKeyPrefix, user, token)
}

func (s *RedisBalanceStore) AppendBalanceUpdate(b types.Balance) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(b.User, b.Token), data, 0).Err()
}

func (s *RedisBalanceStore) GetForUser(user string) []types.Balance {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pattern := fmt.Sprintf("%s%s:*", balanceKeyPrefix, user)
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return nil
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil
	}

	var out []types.Balance
	for _, r := range results {
		data, ok := r.(string)
		if !ok {
			continue
		}
		var b types.Balance
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (s *RedisBalanceStore) Close() error {
	return s.client.Close()
}
