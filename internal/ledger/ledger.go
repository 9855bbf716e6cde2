// Package ledger implements the per-(user, token) balance and lock
// bookkeeping that funds and settles every order. Balance operations are
// serialized per key via a striped mutex set. Every operation holds exactly
// one stripe lock and never waits for a second, so concurrent markets
// touching the same user cannot deadlock on the ledger.
package ledger

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/kernelerr"
	"github.com/PxPatel/trading-system/internal/types"
)

const stripeCount = 256

type entry struct {
	amount    fixedpoint.Amount
	locked    fixedpoint.Amount
	updatedAt time.Time
}

// Key identifies a single ledger row.
type Key struct {
	User  string
	Token string
}

func (k Key) stripe() uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.Token))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.User))
	return h.Sum32() % stripeCount
}

// Less orders keys deterministically by token ticker then user address. No
// ledger operation holds more than one key, and nothing in the ledger calls
// Less.
func (k Key) Less(o Key) bool {
	if k.Token != o.Token {
		return k.Token < o.Token
	}
	return k.User < o.User
}

type stripe struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// Ledger is the exchange-wide balance store, shared by every market that
// references a token.
type Ledger struct {
	stripes [stripeCount]*stripe
	sink    BalanceSink
}

// BalanceSink is the narrow append interface the ledger drives on every
// mutation, satisfied by internal/storage's balance store implementations.
type BalanceSink interface {
	AppendBalanceUpdate(b types.Balance) error
}

type noopSink struct{}

func (noopSink) AppendBalanceUpdate(types.Balance) error { return nil }

// New creates an empty ledger. Balances are created lazily on first credit.
func New(sink BalanceSink) *Ledger {
	l := &Ledger{sink: sink}
	if l.sink == nil {
		l.sink = noopSink{}
	}
	for i := range l.stripes {
		l.stripes[i] = &stripe{entries: make(map[Key]*entry)}
	}
	return l
}

func (l *Ledger) stripeFor(k Key) *stripe {
	return l.stripes[k.stripe()]
}

func (l *Ledger) getOrCreate(s *stripe, k Key) *entry {
	e, ok := s.entries[k]
	if !ok {
		e = &entry{amount: fixedpoint.Zero(), locked: fixedpoint.Zero()}
		s.entries[k] = e
	}
	return e
}

func (l *Ledger) publish(k Key, e *entry) {
	_ = l.sink.AppendBalanceUpdate(types.Balance{
		User:      k.User,
		Token:     k.Token,
		Amount:    e.amount,
		Locked:    e.locked,
		UpdatedAt: e.updatedAt,
	})
}

// Credit increases amount owned. Always succeeds.
func (l *Ledger) Credit(user, token string, delta fixedpoint.Amount) types.Balance {
	k := Key{User: user, Token: token}
	s := l.stripeFor(k)
	s.mu.Lock()
	e := l.getOrCreate(s, k)
	e.amount = e.amount.Add(delta)
	e.updatedAt = time.Now().UTC()
	snap := types.Balance{User: user, Token: token, Amount: e.amount, Locked: e.locked, UpdatedAt: e.updatedAt}
	s.mu.Unlock()
	l.publish(k, &entry{amount: snap.Amount, locked: snap.Locked, updatedAt: snap.UpdatedAt})
	return snap
}

// Debit decreases amount owned, failing InsufficientFunds if delta
// exceeds amount-locked.
func (l *Ledger) Debit(user, token string, delta fixedpoint.Amount) (types.Balance, error) {
	k := Key{User: user, Token: token}
	s := l.stripeFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := l.getOrCreate(s, k)
	if delta.Cmp(available(e)) > 0 {
		return types.Balance{}, kernelerr.New(kernelerr.InsufficientFunds, "debit exceeds available balance")
	}
	e.amount, _ = e.amount.CheckedSub(delta)
	e.updatedAt = time.Now().UTC()
	snap := snapshot(k, e)
	l.publish(k, e)
	return snap, nil
}

// Lock reserves delta against amount-locked, failing InsufficientFunds
// if there isn't enough available.
func (l *Ledger) Lock(user, token string, delta fixedpoint.Amount) (types.Balance, error) {
	k := Key{User: user, Token: token}
	s := l.stripeFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := l.getOrCreate(s, k)
	if delta.Cmp(available(e)) > 0 {
		return types.Balance{}, kernelerr.New(kernelerr.InsufficientFunds, "lock exceeds available balance")
	}
	e.locked = e.locked.Add(delta)
	e.updatedAt = time.Now().UTC()
	snap := snapshot(k, e)
	l.publish(k, e)
	return snap, nil
}

// Unlock releases delta from locked back to available, failing
// InvariantViolation if delta exceeds locked.
func (l *Ledger) Unlock(user, token string, delta fixedpoint.Amount) (types.Balance, error) {
	if delta.IsZero() {
		return l.Snapshot(user, token), nil
	}
	k := Key{User: user, Token: token}
	s := l.stripeFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := l.getOrCreate(s, k)
	if delta.Cmp(e.locked) > 0 {
		return types.Balance{}, kernelerr.New(kernelerr.InvariantViolation, "unlock exceeds locked balance")
	}
	e.locked, _ = e.locked.CheckedSub(delta)
	e.updatedAt = time.Now().UTC()
	snap := snapshot(k, e)
	l.publish(k, e)
	return snap, nil
}

// SettleLocked atomically consumes previously locked funds: locked -= delta
// and amount -= delta. Fails InvariantViolation if delta exceeds locked.
func (l *Ledger) SettleLocked(user, token string, delta fixedpoint.Amount) (types.Balance, error) {
	if delta.IsZero() {
		return l.Snapshot(user, token), nil
	}
	k := Key{User: user, Token: token}
	s := l.stripeFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := l.getOrCreate(s, k)
	if delta.Cmp(e.locked) > 0 {
		return types.Balance{}, kernelerr.New(kernelerr.InvariantViolation, "settle exceeds locked balance")
	}
	e.locked, _ = e.locked.CheckedSub(delta)
	e.amount, _ = e.amount.CheckedSub(delta)
	e.updatedAt = time.Now().UTC()
	snap := snapshot(k, e)
	l.publish(k, e)
	return snap, nil
}

// Snapshot returns the current balance for (user, token), zero-valued if
// the entry has never been touched.
func (l *Ledger) Snapshot(user, token string) types.Balance {
	k := Key{User: user, Token: token}
	s := l.stripeFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k]
	if !ok {
		return types.Balance{User: user, Token: token, Amount: fixedpoint.Zero(), Locked: fixedpoint.Zero()}
	}
	return snapshot(k, e)
}

// AllForUser returns a snapshot of every token balance held by user, across
// all stripes. Used by the read-only `balances` info endpoint.
func (l *Ledger) AllForUser(user string) []types.Balance {
	var out []types.Balance
	for _, s := range l.stripes {
		s.mu.Lock()
		for k, e := range s.entries {
			if k.User == user {
				out = append(out, snapshot(k, e))
			}
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

func available(e *entry) fixedpoint.Amount {
	avail, err := e.amount.CheckedSub(e.locked)
	if err != nil {
		return fixedpoint.Zero()
	}
	return avail
}

func snapshot(k Key, e *entry) types.Balance {
	return types.Balance{User: k.User, Token: k.Token, Amount: e.amount, Locked: e.locked, UpdatedAt: e.updatedAt}
}
