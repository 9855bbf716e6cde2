package memory

import (
	"sync"

	"github.com/PxPatel/trading-system/internal/types"
)

// InMemoryTradeStore implements TradeStore as a bounded append-only ring
// buffer. Keeps only the maxSize most recent trades in memory; used as the
// hot-path layer beneath Redis and PostgreSQL in the composite trade store.
type InMemoryTradeStore struct {
	trades  []*types.Trade
	maxSize int
	mutex   sync.RWMutex
}

// NewInMemoryTradeStore creates a new in-memory trade store with a size limit.
func NewInMemoryTradeStore(maxSize int) *InMemoryTradeStore {
	return &InMemoryTradeStore{
		trades:  make([]*types.Trade, 0, maxSize),
		maxSize: maxSize,
	}
}

func (s *InMemoryTradeStore) Save(trade *types.Trade) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.trades = append(s.trades, trade)
	if len(s.trades) > s.maxSize {
		s.trades = s.trades[len(s.trades)-s.maxSize:]
	}
	return nil
}

func (s *InMemoryTradeStore) SaveBatch(trades []*types.Trade) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.trades = append(s.trades, trades...)
	if len(s.trades) > s.maxSize {
		s.trades = s.trades[len(s.trades)-s.maxSize:]
	}
	return nil
}

func (s *InMemoryTradeStore) GetRecent(marketID, user string, limit int) ([]*types.Trade, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matched []*types.Trade
	for i := len(s.trades) - 1; i >= 0; i-- {
		t := s.trades[i]
		if marketID != "" && t.MarketID != marketID {
			continue
		}
		if user != "" && t.BuyerAddress != user && t.SellerAddress != user {
			continue
		}
		matched = append(matched, t)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

func (s *InMemoryTradeStore) Close() error {
	return nil
}
