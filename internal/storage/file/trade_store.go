// Package file implements the append-only trade log tier beneath the
// composite trade store, generalizing the teacher's write-only file store.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/PxPatel/trading-system/internal/types"
)

// TradeStore appends every trade as one JSON line. Writes are asynchronous
// so they never add latency to the matching goroutine that calls Save; the
// store is write-only, so callers pair it with a readable tier (memory,
// Redis, PostgreSQL) in a composite store for lookups.
type TradeStore struct {
	file    *os.File
	encoder *json.Encoder
	mutex   sync.Mutex
}

// NewTradeStore opens (or creates) the append-only log at filePath.
func NewTradeStore(filePath string) (*TradeStore, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log: %w", err)
	}
	return &TradeStore{file: f, encoder: json.NewEncoder(f)}, nil
}

func (s *TradeStore) Save(trade *types.Trade) error {
	go func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		_ = s.encoder.Encode(trade)
	}()
	return nil
}

func (s *TradeStore) SaveBatch(trades []*types.Trade) error {
	go func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		for _, trade := range trades {
			_ = s.encoder.Encode(trade)
		}
	}()
	return nil
}

func (s *TradeStore) GetRecent(marketID, user string, limit int) ([]*types.Trade, error) {
	return []*types.Trade{}, nil
}

func (s *TradeStore) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
