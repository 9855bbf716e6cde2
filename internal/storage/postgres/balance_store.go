package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/types"
)

// PostgresBalanceStore appends one row per ledger mutation, forming the
// durable audit trail the exchange design commits to for balance changes.
type PostgresBalanceStore struct {
	pool *pgxpool.Pool
}

// NewPostgresBalanceStore opens a pool against cfg and runs migrations.
func NewPostgresBalanceStore(cfg PostgresConfig) (*PostgresBalanceStore, error) {
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
	return &PostgresBalanceStore{pool: pool}, nil
}

func (s *PostgresBalanceStore) AppendBalanceUpdate(b types.Balance) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO balance_updates (user_id, token, amount, locked, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, b.User, b.Token, b.Amount.String(), b.Locked.String(), b.UpdatedAt)
	return err
}

func (s *PostgresBalanceStore) GetForUser(user string) []types.Balance {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		SELECT DISTINCT ON (token) token, amount, locked, updated_at
		FROM balance_updates
		WHERE user_id = $1
		ORDER BY token, updated_at DESC
	`
	rows, err := s.pool.Query(ctx, query, user)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []types.Balance
	for rows.Next() {
		var b types.Balance
		var amount, locked string
		if err := rows.Scan(&b.Token, &amount, &locked, &b.UpdatedAt); err != nil {
			continue
		}
		b.User = user
		b.Amount, _ = fixedpoint.FromAtomString(amount)
		b.Locked, _ = fixedpoint.FromAtomString(locked)
		out = append(out, b)
	}
	return out
}

func (s *PostgresBalanceStore) Close() error {
	s.pool.Close()
	return nil
}
