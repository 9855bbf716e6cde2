package storage

import "github.com/PxPatel/trading-system/internal/types"

// OrderStore abstracts order storage and retrieval operations.
// Implementations can be in-memory (map), Redis, PostgreSQL, or a
// composite of several layered together.
type OrderStore interface {
	// Save stores a new order snapshot.
	Save(order *types.Order) error

	// Get retrieves an order by ID.
	Get(orderID uint64) (*types.Order, error)

	// Remove deletes an order from storage.
	Remove(orderID uint64) error

	// Update persists a status/fill change against an existing order.
	Update(order *types.Order) error

	// GetAll returns all tracked orders.
	GetAll() []*types.Order

	// GetByUser returns all orders for a specific user, optionally
	// filtered by market id (empty string means all markets).
	GetByUser(userID, marketID string) []*types.Order

	// GetBySide returns all orders for a specific side of a market.
	GetBySide(marketID string, side types.Side) []*types.Order

	// Close releases any resources held by the store.
	Close() error
}

// TradeStore abstracts trade storage and retrieval operations.
type TradeStore interface {
	// Save persists a single trade.
	Save(trade *types.Trade) error

	// SaveBatch persists multiple trades (useful for database batch inserts).
	SaveBatch(trades []*types.Trade) error

	// GetRecent retrieves the N most recent trades, optionally filtered by
	// market and/or user (either may be empty to mean "no filter").
	GetRecent(marketID, user string, limit int) ([]*types.Trade, error)

	// Close releases any resources held by the store.
	Close() error
}

// BalanceStore abstracts balance-update audit storage. The exchange spec
// commits to emitting a balance-update record on every ledger mutation;
// the teacher repo's storage contracts never covered this, so this
// interface extends the pattern to that case.
type BalanceStore interface {
	// AppendBalanceUpdate records a (user, token, amount, locked,
	// updated_at) snapshot.
	AppendBalanceUpdate(b types.Balance) error

	// GetForUser returns the most recently recorded balance snapshots for
	// a user, one per token.
	GetForUser(user string) []types.Balance

	// Close releases any resources held by the store.
	Close() error
}
