package memory

import (
	"sync"

	"github.com/PxPatel/trading-system/internal/types"
)

// InMemoryBalanceStore keeps the latest balance snapshot per (user, token),
// the hot-path layer beneath the composite balance store's audit log.
type InMemoryBalanceStore struct {
	mutex sync.RWMutex
	byKey map[string]types.Balance // "user|token" -> latest snapshot
}

// NewInMemoryBalanceStore creates an empty balance snapshot store.
func NewInMemoryBalanceStore() *InMemoryBalanceStore {
	return &InMemoryBalanceStore{byKey: make(map[string]types.Balance)}
}

func balanceKey(user, token string) string { return user + "|" + token }

func (s *InMemoryBalanceStore) AppendBalanceUpdate(b types.Balance) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.byKey[balanceKey(b.User, b.Token)] = b
	return nil
}

func (s *InMemoryBalanceStore) GetForUser(user string) []types.Balance {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []types.Balance
	for _, b := range s.byKey {
		if b.User == user {
			out = append(out, b)
		}
	}
	return out
}

func (s *InMemoryBalanceStore) Close() error {
	return nil
}
