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

// PostgresTradeStore implements TradeStore using PostgreSQL.
type PostgresTradeStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTradeStore opens a pool against cfg and runs migrations.
func NewPostgresTradeStore(cfg PostgresConfig) (*PostgresTradeStore, error) {
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
	return &PostgresTradeStore{pool: pool}, nil
}

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, market_id, buyer_address, seller_address, buyer_order_id, seller_order_id,
		price, size, aggressor_side, buyer_fee, buyer_fee_credit, seller_fee, seller_fee_credit, ts
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (trade_id) DO NOTHING
`

func (s *PostgresTradeStore) Save(trade *types.Trade) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(trade)...)
	return err
}

func (s *PostgresTradeStore) SaveBatch(trades []*types.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, trade := range trades {
		batch.Queue(insertTradeQuery, tradeArgs(trade)...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range trades {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at index %d: %w", i, err)
		}
	}
	return nil
}

func tradeArgs(trade *types.Trade) []interface{} {
	return []interface{}{
		trade.ID, trade.MarketID, trade.BuyerAddress, trade.SellerAddress,
		trade.BuyerOrderID, trade.SellerOrderID, trade.Price.String(), trade.Size.String(),
		string(trade.AggressorSide), trade.BuyerFee.String(), trade.BuyerFeeCredit,
		trade.SellerFee.String(), trade.SellerFeeCredit, trade.Timestamp,
	}
}

func (s *PostgresTradeStore) GetRecent(marketID, user string, limit int) ([]*types.Trade, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT trade_id, market_id, buyer_address, seller_address, buyer_order_id, seller_order_id,
		       price, size, aggressor_side, buyer_fee, buyer_fee_credit, seller_fee, seller_fee_credit, ts
		FROM trades
		WHERE ($1 = '' OR market_id = $1) AND ($2 = '' OR buyer_address = $2 OR seller_address = $2)
		ORDER BY ts DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, marketID, user, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*types.Trade
	for rows.Next() {
		var (
			t                                        types.Trade
			aggressorSide                             string
			price, size, buyerFee, sellerFee          string
		)
		err := rows.Scan(
			&t.ID, &t.MarketID, &t.BuyerAddress, &t.SellerAddress, &t.BuyerOrderID, &t.SellerOrderID,
			&price, &size, &aggressorSide, &buyerFee, &t.BuyerFeeCredit, &sellerFee, &t.SellerFeeCredit, &t.Timestamp,
		)
		if err != nil {
			continue
		}
		t.AggressorSide = types.Side(aggressorSide)
		t.Price, _ = fixedpoint.FromAtomString(price)
		t.Size, _ = fixedpoint.FromAtomString(size)
		t.BuyerFee, _ = fixedpoint.FromAtomString(buyerFee)
		t.SellerFee, _ = fixedpoint.FromAtomString(sellerFee)
		trades = append(trades, &t)
	}
	return trades, nil
}

func (s *PostgresTradeStore) Close() error {
	s.pool.Close()
	return nil
}
