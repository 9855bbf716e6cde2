package storage

import "github.com/PxPatel/trading-system/internal/types"

// CompositeBalanceStore combines multiple BalanceStore implementations.
// Appends go to ALL stores, reads come from the FIRST store that has data.
type CompositeBalanceStore struct {
	stores []BalanceStore
}

// NewCompositeBalanceStore creates a composite store from multiple stores.
func NewCompositeBalanceStore(stores ...BalanceStore) *CompositeBalanceStore {
	return &CompositeBalanceStore{stores: stores}
}

func (c *CompositeBalanceStore) AppendBalanceUpdate(b types.Balance) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.AppendBalanceUpdate(b); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeBalanceStore) GetForUser(user string) []types.Balance {
	for _, store := range c.stores {
		balances := store.GetForUser(user)
		if len(balances) > 0 {
			return balances
		}
	}
	return nil
}

func (c *CompositeBalanceStore) Close() error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
