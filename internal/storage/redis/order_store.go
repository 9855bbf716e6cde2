package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PxPatel/trading-system/internal/types"
)

const (
	orderKeyPrefix    = "order:"
	userOrdersPrefix  = "user_orders:"
	sideOrdersPrefix  = "side_orders:"
	ordersTimelineKey = "orders:timeline" // sorted set for FIFO trimming
)

// RedisOrderStore implements OrderStore using Redis, sitting between the
// in-memory hot layer and PostgreSQL in the composite order store. Order
// keys and the per-user/per-side sets expire after orderTTL. The timeline
// sorted set is trimmed to the newest maxOrders entries; trimming removes
// only timeline entries, not the order keys themselves.
type RedisOrderStore struct {
	client    *redis.Client
	orderTTL  time.Duration
	maxOrders int
}

// NewRedisOrderStore creates a new Redis-backed order store.
func NewRedisOrderStore(cfg RedisConfig) (*RedisOrderStore, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisOrderStore{client: client, orderTTL: cfg.OrderTTL, maxOrders: cfg.MaxOrders}, nil
}

func userOrdersKey(marketID, userID string) string {
	return fmt.Sprintf("%s%s:%s", userOrdersPrefix, marketID, userID)
}

func sideOrdersKey(marketID string, side types.Side) string {
	return fmt.Sprintf("%s%s:%s", sideOrdersPrefix, marketID, side)
}

func (s *RedisOrderStore) Save(order *types.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()

	orderKey := fmt.Sprintf("%s%d", orderKeyPrefix, order.ID)
	pipe.Set(ctx, orderKey, data, s.orderTTL)

	userKey := userOrdersKey(order.MarketID, order.User)
	pipe.SAdd(ctx, userKey, order.ID)
	pipe.Expire(ctx, userKey, s.orderTTL)

	sideKey := sideOrdersKey(order.MarketID, order.Side)
	pipe.SAdd(ctx, sideKey, order.ID)
	pipe.Expire(ctx, sideKey, s.orderTTL)

	score := float64(order.CreatedAt.UnixNano())
	pipe.ZAdd(ctx, ordersTimelineKey, redis.Z{Score: score, Member: order.ID})
	pipe.ZRemRangeByRank(ctx, ordersTimelineKey, 0, int64(-s.maxOrders-1))

	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisOrderStore) Get(orderID uint64) (*types.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	orderKey := fmt.Sprintf("%s%d", orderKeyPrefix, orderID)
	data, err := s.client.Get(ctx, orderKey).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	if err != nil {
		return nil, err
	}

	var order types.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *RedisOrderStore) Remove(orderID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	order, err := s.Get(orderID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, fmt.Sprintf("%s%d", orderKeyPrefix, orderID))
	pipe.SRem(ctx, userOrdersKey(order.MarketID, order.User), orderID)
	pipe.SRem(ctx, sideOrdersKey(order.MarketID, order.Side), orderID)
	pipe.ZRem(ctx, ordersTimelineKey, orderID)

	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisOrderStore) Update(order *types.Order) error {
	// Redis has no partial-document update path here; upsert the whole record.
	return s.Save(order)
}

func (s *RedisOrderStore) GetAll() []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pattern := orderKeyPrefix + "*"
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return []*types.Order{}
	}
	return s.getOrdersByKeys(ctx, keys)
}

func (s *RedisOrderStore) GetByUser(userID, marketID string) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if marketID != "" {
		orderIDs, err := s.client.SMembers(ctx, userOrdersKey(marketID, userID)).Result()
		if err != nil {
			return []*types.Order{}
		}
		return s.getOrdersByKeys(ctx, orderKeysFromIDs(orderIDs))
	}

	// No market filter: scan every user index this order might have joined.
	pattern := fmt.Sprintf("%s*:%s", userOrdersPrefix, userID)
	userKeys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return []*types.Order{}
	}
	var out []*types.Order
	for _, uk := range userKeys {
		orderIDs, err := s.client.SMembers(ctx, uk).Result()
		if err != nil {
			continue
		}
		out = append(out, s.getOrdersByKeys(ctx, orderKeysFromIDs(orderIDs))...)
	}
	return out
}

func (s *RedisOrderStore) GetBySide(marketID string, side types.Side) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orderIDs, err := s.client.SMembers(ctx, sideOrdersKey(marketID, side)).Result()
	if err != nil {
		return []*types.Order{}
	}
	return s.getOrdersByKeys(ctx, orderKeysFromIDs(orderIDs))
}

func (s *RedisOrderStore) Close() error {
	return s.client.Close()
}

func orderKeysFromIDs(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = orderKeyPrefix + id
	}
	return keys
}

func (s *RedisOrderStore) getOrdersByKeys(ctx context.Context, keys []string) []*types.Order {
	if len(keys) == 0 {
		return []*types.Order{}
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return []*types.Order{}
	}

	var orders []*types.Order
	for _, result := range results {
		if result == nil {
			continue
		}
		data, ok := result.(string)
		if !ok {
			continue
		}
		var order types.Order
		if err := json.Unmarshal([]byte(data), &order); err != nil {
			continue
		}
		orders = append(orders, &order)
	}
	return orders
}
