package storage

import (
	"github.com/PxPatel/trading-system/internal/types"
)

// CompositeOrderStore combines multiple OrderStore implementations.
// Writes go to ALL stores, reads come from the FIRST store that succeeds.
// Example: NewCompositeOrderStore(memoryStore, redisStore, postgresStore)
// writes to all three, reads from memory (fastest), falls back to redis, then postgres.
type CompositeOrderStore struct {
	stores []OrderStore
}

// NewCompositeOrderStore creates a composite store from multiple stores.
func NewCompositeOrderStore(stores ...OrderStore) *CompositeOrderStore {
	return &CompositeOrderStore{stores: stores}
}

func (c *CompositeOrderStore) Save(order *types.Order) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Save(order); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeOrderStore) Get(orderID uint64) (*types.Order, error) {
	for _, store := range c.stores {
		order, err := store.Get(orderID)
		if err == nil && order != nil {
			return order, nil
		}
	}
	return nil, nil
}

func (c *CompositeOrderStore) Remove(orderID uint64) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Remove(orderID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeOrderStore) Update(order *types.Order) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Update(order); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeOrderStore) GetAll() []*types.Order {
	for _, store := range c.stores {
		orders := store.GetAll()
		if len(orders) > 0 {
			return orders
		}
	}
	return []*types.Order{}
}

func (c *CompositeOrderStore) GetByUser(userID, marketID string) []*types.Order {
	for _, store := range c.stores {
		orders := store.GetByUser(userID, marketID)
		if len(orders) > 0 {
			return orders
		}
	}
	return []*types.Order{}
}

func (c *CompositeOrderStore) GetBySide(marketID string, side types.Side) []*types.Order {
	for _, store := range c.stores {
		orders := store.GetBySide(marketID, side)
		if len(orders) > 0 {
			return orders
		}
	}
	return []*types.Order{}
}

func (c *CompositeOrderStore) Close() error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
