// Package registry holds the exchange's admin-created, immutable-once-created
// token and market definitions, generalizing the teacher's ad-hoc market
// lookup in cmd/api/server.go into a first-class, concurrency-safe component.
package registry

import (
	"sort"
	"sync"

	"github.com/PxPatel/trading-system/internal/kernelerr"
	"github.com/PxPatel/trading-system/internal/types"
)

// Registry stores every known token and market. Entries are never mutated
// or removed once created, so reads never need to copy beyond the top-level
// struct value.
type Registry struct {
	mu      sync.RWMutex
	tokens  map[string]types.Token
	markets map[string]types.Market
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tokens:  make(map[string]types.Token),
		markets: make(map[string]types.Market),
	}
}

// CreateToken registers a new token, failing AlreadyExists on a duplicate ticker.
func (r *Registry) CreateToken(t types.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[t.Ticker]; ok {
		return kernelerr.New(kernelerr.AlreadyExists, "token already registered: "+t.Ticker)
	}
	r.tokens[t.Ticker] = t
	return nil
}

// Token looks up a token by ticker.
func (r *Registry) Token(ticker string) (types.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[ticker]
	if !ok {
		return types.Token{}, kernelerr.New(kernelerr.UnknownToken, "unknown token: "+ticker)
	}
	return t, nil
}

// Tokens returns every registered token, sorted by ticker.
func (r *Registry) Tokens() []types.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// CreateMarket registers a new market, validating that its base and quote
// tokens are already known and that its id isn't taken. Market ids are the
// canonical "BASE/QUOTE" form.
func (r *Registry) CreateMarket(m types.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.markets[m.ID]; ok {
		return kernelerr.New(kernelerr.AlreadyExists, "market already registered: "+m.ID)
	}
	if _, ok := r.tokens[m.BaseTicker]; !ok {
		return kernelerr.New(kernelerr.UnknownToken, "unknown base token: "+m.BaseTicker)
	}
	if _, ok := r.tokens[m.QuoteTicker]; !ok {
		return kernelerr.New(kernelerr.UnknownToken, "unknown quote token: "+m.QuoteTicker)
	}
	r.markets[m.ID] = m
	return nil
}

// Market looks up a market by id.
func (r *Registry) Market(id string) (types.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.markets[id]
	if !ok {
		return types.Market{}, kernelerr.New(kernelerr.UnknownMarket, "unknown market: "+id)
	}
	return m, nil
}

// Markets returns every registered market, sorted by id.
func (r *Registry) Markets() []types.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Market, 0, len(r.markets))
	for _, m := range r.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
