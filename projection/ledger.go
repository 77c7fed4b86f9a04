// Package projection builds the off-chain read model of room bounties.
// Settlement stays authoritative; this package never moves funds.
package projection

import (
	"bounty-lab/domain"
	"bounty-lab/errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultShardCount = 64

// book is the ledger of a single room.
// Its mutex is the unit of work for every deposit to that room.
type book struct {
	mu         sync.Mutex
	total      domain.Amount
	version    uint64
	depositors map[domain.DepositorID]*domain.Depositor
}

type ledgerShard struct {
	mu    sync.RWMutex
	books map[domain.RoomID]*book
}

// RoomBook is a consistent copy of one room's ledger.
type RoomBook struct {
	Room       domain.RoomID
	Version    uint64
	PoolTotal  domain.Amount
	Depositors []domain.Depositor
}

// Ledger aggregates deposits per (room, depositor) and keeps the room pool total
// equal to the sum of the aggregated entries.
type Ledger struct {
	shards []*ledgerShard
}

func NewLedger(shardCount int) *Ledger {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	l := &Ledger{shards: make([]*ledgerShard, shardCount)}
	for i := range l.shards {
		l.shards[i] = &ledgerShard{books: make(map[domain.RoomID]*book)}
	}
	return l
}

func (l *Ledger) shardOf(roomID domain.RoomID) *ledgerShard {
	return l.shards[xxhash.Sum64String(string(roomID))%uint64(len(l.shards))]
}

func (l *Ledger) lookup(roomID domain.RoomID) *book {
	s := l.shardOf(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.books[roomID]
}

func (l *Ledger) getOrCreate(roomID domain.RoomID) *book {
	if b := l.lookup(roomID); b != nil {
		return b
	}
	s := l.shardOf(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.books[roomID]; ok {
		return b
	}
	b := &book{depositors: make(map[domain.DepositorID]*domain.Depositor)}
	s.books[roomID] = b
	return b
}

// RecordDeposit adds amount to the depositor's running total and to the room pool
// as a single read-modify-write under the room lock.
// Wallet address and timestamp are overwritten with the latest values.
func (l *Ledger) RecordDeposit(roomID domain.RoomID, depositorID domain.DepositorID,
	amount domain.Amount, walletAddress string, at time.Time) (domain.DepositReceipt, error) {
	if !amount.IsPositive() {
		return domain.DepositReceipt{}, fmt.Errorf("%w: %s must be positive", errors.ErrInvalidAmount, amount)
	}

	b := l.getOrCreate(roomID)
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.depositors[depositorID]
	var cumulative domain.Amount
	if ok {
		cumulative = entry.Cumulative
	}
	newCumulative, ok1 := cumulative.Add(amount)
	newTotal, ok2 := b.total.Add(amount)
	if !ok1 || !ok2 {
		return domain.DepositReceipt{}, fmt.Errorf("%w: %s overflows the pool of room %s", errors.ErrInvalidAmount, amount, roomID)
	}

	if entry == nil {
		entry = &domain.Depositor{Room: roomID, DepositorID: depositorID}
		b.depositors[depositorID] = entry
	}
	entry.Cumulative = newCumulative
	entry.WalletAddress = walletAddress
	entry.LastDepositAt = at
	b.total = newTotal
	b.version++

	return domain.DepositReceipt{
		Room:          roomID,
		DepositorID:   depositorID,
		NewCumulative: newCumulative,
		NewPoolTotal:  newTotal,
	}, nil
}

// DepositorsOf returns the aggregated entries of a room, most recent deposit first.
func (l *Ledger) DepositorsOf(roomID domain.RoomID) []domain.Depositor {
	b := l.lookup(roomID)
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedDepositors(b)
}

// PoolTotalOf returns zero for unknown rooms.
func (l *Ledger) PoolTotalOf(roomID domain.RoomID) domain.Amount {
	b := l.lookup(roomID)
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Versions returns the change counter of every known room.
func (l *Ledger) Versions() map[domain.RoomID]uint64 {
	versions := make(map[domain.RoomID]uint64)
	for _, s := range l.shards {
		s.mu.RLock()
		books := make(map[domain.RoomID]*book, len(s.books))
		for id, b := range s.books {
			books[id] = b
		}
		s.mu.RUnlock()

		for id, b := range books {
			b.mu.Lock()
			versions[id] = b.version
			b.mu.Unlock()
		}
	}
	return versions
}

// Book copies the ledger of one room.
func (l *Ledger) Book(roomID domain.RoomID) (RoomBook, bool) {
	b := l.lookup(roomID)
	if b == nil {
		return RoomBook{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return RoomBook{
		Room:       roomID,
		Version:    b.version,
		PoolTotal:  b.total,
		Depositors: sortedDepositors(b),
	}, true
}

// Restore loads books saved by a previous process. The pool total is recomputed
// from the entries so a torn mirror can never break the pool invariant.
func (l *Ledger) Restore(books []RoomBook) error {
	for _, rb := range books {
		b := l.getOrCreate(rb.Room)
		b.mu.Lock()
		var total domain.Amount
		depositors := make(map[domain.DepositorID]*domain.Depositor, len(rb.Depositors))
		for _, d := range rb.Depositors {
			if d.Cumulative < 0 {
				b.mu.Unlock()
				return fmt.Errorf("%w: negative cumulative for %s in room %s", errors.ErrInvalidAmount, d.DepositorID, rb.Room)
			}
			var ok bool
			if total, ok = total.Add(d.Cumulative); !ok {
				b.mu.Unlock()
				return fmt.Errorf("%w: pool of room %s overflows", errors.ErrInvalidAmount, rb.Room)
			}
			entry := d
			entry.Room = rb.Room
			depositors[d.DepositorID] = &entry
		}
		b.depositors = depositors
		b.total = total
		b.version = rb.Version
		b.mu.Unlock()
	}
	return nil
}

// sortedDepositors must be called with b.mu held.
func sortedDepositors(b *book) []domain.Depositor {
	res := make([]domain.Depositor, 0, len(b.depositors))
	for _, d := range b.depositors {
		res = append(res, *d)
	}
	slices.SortFunc(res, func(a, c domain.Depositor) int {
		if cmp := c.LastDepositAt.Compare(a.LastDepositAt); cmp != 0 {
			return cmp
		}
		return strings.Compare(string(a.DepositorID), string(c.DepositorID))
	})
	return res
}
