package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/types"
)

// PostgresOrderStore implements OrderStore using PostgreSQL, the durable
// tier beneath the in-memory and Redis layers in the composite order store.
type PostgresOrderStore struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStore opens a pool against cfg and runs migrations.
func NewPostgresOrderStore(cfg PostgresConfig) (*PostgresOrderStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &PostgresOrderStore{pool: pool}, nil
}

func (s *PostgresOrderStore) Save(order *types.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO orders (
			order_id, user_id, market_id, side, kind, price, size, filled, status,
			funding_cap, locked_funding_token, locked_amount, signature,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (order_id) DO UPDATE SET
			filled = EXCLUDED.filled,
			status = EXCLUDED.status,
			locked_amount = EXCLUDED.locked_amount,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		order.ID, order.User, order.MarketID, string(order.Side), string(order.Kind),
		order.Price.String(), order.Size.String(), order.Filled.String(), string(order.Status),
		order.FundingCap.String(), order.LockedFundingToken, order.LockedAmount.String(), order.Signature,
		order.CreatedAt, order.UpdatedAt,
	)
	return err
}

func (s *PostgresOrderStore) Get(orderID uint64) (*types.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		SELECT order_id, user_id, market_id, side, kind, price, size, filled, status,
		       funding_cap, locked_funding_token, locked_amount, signature, created_at, updated_at
		FROM orders WHERE order_id = $1
	`
	row := s.pool.QueryRow(ctx, query, orderID)
	order, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	return order, err
}

func (s *PostgresOrderStore) Remove(orderID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, orderID)
	return err
}

func (s *PostgresOrderStore) Update(order *types.Order) error {
	return s.Save(order)
}

func (s *PostgresOrderStore) GetAll() []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, baseOrderQuery+` ORDER BY created_at DESC`)
	if err != nil {
		return []*types.Order{}
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *PostgresOrderStore) GetByUser(userID, marketID string) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var rows pgx.Rows
	var err error
	if marketID != "" {
		rows, err = s.pool.Query(ctx, baseOrderQuery+` WHERE user_id = $1 AND market_id = $2 ORDER BY created_at DESC`, userID, marketID)
	} else {
		rows, err = s.pool.Query(ctx, baseOrderQuery+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	}
	if err != nil {
		return []*types.Order{}
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *PostgresOrderStore) GetBySide(marketID string, side types.Side) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, baseOrderQuery+` WHERE market_id = $1 AND side = $2 ORDER BY created_at DESC`, marketID, string(side))
	if err != nil {
		return []*types.Order{}
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *PostgresOrderStore) Close() error {
	s.pool.Close()
	return nil
}

const baseOrderQuery = `
	SELECT order_id, user_id, market_id, side, kind, price, size, filled, status,
	       funding_cap, locked_funding_token, locked_amount, signature, created_at, updated_at
	FROM orders`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*types.Order, error) {
	var (
		o                                                   types.Order
		side, kind, status                                  string
		price, size, filled, fundingCap, lockedAmount       string
	)
	err := row.Scan(
		&o.ID, &o.User, &o.MarketID, &side, &kind, &price, &size, &filled, &status,
		&fundingCap, &o.LockedFundingToken, &lockedAmount, &o.Signature, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Side = types.Side(side)
	o.Kind = types.OrderKind(kind)
	o.Status = types.OrderStatus(status)
	o.Price, _ = fixedpoint.FromAtomString(price)
	o.Size, _ = fixedpoint.FromAtomString(size)
	o.Filled, _ = fixedpoint.FromAtomString(filled)
	o.FundingCap, _ = fixedpoint.FromAtomString(fundingCap)
	o.LockedAmount, _ = fixedpoint.FromAtomString(lockedAmount)
	return &o, nil
}

func scanOrders(rows pgx.Rows) []*types.Order {
	var orders []*types.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, o)
	}
	return orders
}
