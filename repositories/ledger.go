//go:generate go run go.uber.org/mock/mockgen -source=ledger.go -destination=../mocks/mock_ledger_repository.go -package=mocks
package repositories

import (
	"bounty-lab/domain"
	"bounty-lab/projection"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const (
	PoolPrefix  = "pool:"
	StakePrefix = "stake:"
)

// ILedgerRepository mirrors the in-memory ledger to disk.
// It is never the source of truth for a live process.
type ILedgerRepository interface {
	SaveBook(book projection.RoomBook) error
	LoadBooks() ([]projection.RoomBook, error)
}

// PoolRecord is stored under "pool:{room}".
type PoolRecord struct {
	Room      string `cbor:"1,keyasint"`
	Version   uint64 `cbor:"2,keyasint"`
	Total     int64  `cbor:"3,keyasint"`
	UpdatedAt int64  `cbor:"4,keyasint"`
}

// StakeRecord is stored under "stake:{room}:{depositor}".
// Amounts are hundredths, timestamps unix nanoseconds.
type StakeRecord struct {
	Room          string `cbor:"1,keyasint"`
	DepositorID   string `cbor:"2,keyasint"`
	Cumulative    int64  `cbor:"3,keyasint"`
	WalletAddress string `cbor:"4,keyasint"`
	LastDepositAt int64  `cbor:"5,keyasint"`
}

type LedgerRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewLedgerRepository(db *badger.DB, log *slog.Logger) LedgerRepository {
	return LedgerRepository{db: db, log: log}
}

func PoolKey(roomID domain.RoomID) []byte {
	return []byte(PoolPrefix + string(roomID))
}

func StakeKey(roomID domain.RoomID, depositorID domain.DepositorID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", StakePrefix, roomID, depositorID))
}

// SaveBook writes every entry of the book, then its pool record.
// A write batch is used so very large rooms never hit the transaction size limit;
// a torn write is harmless because the pool is recomputed from entries on load.
func (r LedgerRepository) SaveBook(book projection.RoomBook) error {
	wb := r.db.NewWriteBatch()
	defer wb.Cancel()

	for _, d := range book.Depositors {
		bytes, err := marshal(fromDepositor(book.Room, d))
		if err != nil {
			return err
		}
		if err = wb.Set(StakeKey(book.Room, d.DepositorID), bytes); err != nil {
			return err
		}
	}

	bytes, err := marshal(PoolRecord{
		Room:      string(book.Room),
		Version:   book.Version,
		Total:     int64(book.PoolTotal),
		UpdatedAt: time.Now().UnixNano(),
	})
	if err != nil {
		return err
	}
	if err = wb.Set(PoolKey(book.Room), bytes); err != nil {
		return err
	}
	return wb.Flush()
}

// LoadBooks reads back every mirrored room. Rooms with entries but no pool
// record are still returned; their version starts at zero.
func (r LedgerRepository) LoadBooks() ([]projection.RoomBook, error) {
	books := make(map[domain.RoomID]*projection.RoomBook)
	bookOf := func(roomID domain.RoomID) *projection.RoomBook {
		b, ok := books[roomID]
		if !ok {
			b = &projection.RoomBook{Room: roomID}
			books[roomID] = b
		}
		return b
	}

	err := r.db.View(func(txn *badger.Txn) error {
		err := scanPrefix(txn, PoolPrefix, func(key string, val []byte) error {
			var record PoolRecord
			if err := unmarshal(val, &record); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
			b := bookOf(domain.RoomID(record.Room))
			b.Version = record.Version
			b.PoolTotal = domain.Amount(record.Total)
			return nil
		})
		if err != nil {
			return err
		}
		return scanPrefix(txn, StakePrefix, func(key string, val []byte) error {
			var record StakeRecord
			if err := unmarshal(val, &record); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
			b := bookOf(domain.RoomID(record.Room))
			b.Depositors = append(b.Depositors, toDepositor(record))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	res := lo.MapToSlice(books, func(_ domain.RoomID, b *projection.RoomBook) projection.RoomBook {
		return *b
	})
	r.log.Debug("Ledger mirror loaded", "rooms", len(res))
	return res, nil
}

func scanPrefix(txn *badger.Txn, prefix string, fn func(key string, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
			return err
		}
	}
	return nil
}

func fromDepositor(roomID domain.RoomID, d domain.Depositor) StakeRecord {
	return StakeRecord{
		Room:          string(roomID),
		DepositorID:   string(d.DepositorID),
		Cumulative:    int64(d.Cumulative),
		WalletAddress: d.WalletAddress,
		LastDepositAt: d.LastDepositAt.UnixNano(),
	}
}

func toDepositor(record StakeRecord) domain.Depositor {
	return domain.Depositor{
		Room:          domain.RoomID(record.Room),
		DepositorID:   domain.DepositorID(record.DepositorID),
		Cumulative:    domain.Amount(record.Cumulative),
		WalletAddress: record.WalletAddress,
		LastDepositAt: time.Unix(0, record.LastDepositAt).UTC(),
	}
}

// DescribeRecord renders a mirrored value for inspection tools.
func DescribeRecord(key string, val []byte) (string, string, error) {
	switch {
	case strings.HasPrefix(key, PoolPrefix):
		var record PoolRecord
		if err := unmarshal(val, &record); err != nil {
			return "POOL", "", err
		}
		return "POOL", fmt.Sprintf("total=%s version=%d", domain.Amount(record.Total), record.Version), nil
	case strings.HasPrefix(key, StakePrefix):
		var record StakeRecord
		if err := unmarshal(val, &record); err != nil {
			return "STAKE", "", err
		}
		return "STAKE", fmt.Sprintf("%s staked %s from %s", record.DepositorID,
			domain.Amount(record.Cumulative), record.WalletAddress), nil
	default:
		return "RAW", "", nil
	}
}
