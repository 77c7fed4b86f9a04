package workers

import (
	"bounty-lab/domain"
	"bounty-lab/observability"
	"bounty-lab/projection"
	"bounty-lab/repositories"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LedgerMirrorWorker periodically copies changed room books to durable storage.
// The in-memory ledger stays authoritative for the running process;
// the mirror is only read back at startup.
type LedgerMirrorWorker struct {
	mu         sync.Mutex
	log        *slog.Logger
	ledger     *projection.Ledger
	repository repositories.ILedgerRepository
	metrics    *observability.Metrics
	interval   time.Duration
	saved      map[domain.RoomID]uint64
}

func NewLedgerMirrorWorker(log *slog.Logger, ledger *projection.Ledger,
	repository repositories.ILedgerRepository, metrics *observability.Metrics,
	interval time.Duration) *LedgerMirrorWorker {
	return &LedgerMirrorWorker{
		log:        log,
		ledger:     ledger,
		repository: repository,
		metrics:    metrics,
		interval:   interval,
		saved:      make(map[domain.RoomID]uint64),
	}
}

// MarkSaved records books already present in storage, typically right after a restore.
func (w *LedgerMirrorWorker) MarkSaved(books []projection.RoomBook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range books {
		w.saved[b.Room] = b.Version
	}
}

// Run flushes on every tick and once more when the context ends.
func (w *LedgerMirrorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := w.Flush(); err != nil {
				w.log.Error("Ledger mirror flush failed", "error", err)
			}
		case <-ctx.Done():
			n, err := w.Flush()
			if err != nil {
				w.log.Error("Final ledger mirror flush failed", "error", err)
			}
			w.log.Info("Ledger mirror stopped", "flushed", n)
			return nil
		}
	}
}

// Flush saves every room whose version moved since the last save.
// A failing room is retried on the next flush and never blocks the others.
func (w *LedgerMirrorWorker) Flush() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	flushed := 0
	for roomID, version := range w.ledger.Versions() {
		if saved, ok := w.saved[roomID]; ok && saved == version {
			continue
		}
		book, ok := w.ledger.Book(roomID)
		if !ok {
			continue
		}
		if err := w.repository.SaveBook(book); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", roomID, err))
			continue
		}
		w.saved[roomID] = book.Version
		flushed++
	}
	if flushed > 0 {
		w.metrics.RoomsMirrored(flushed)
		w.log.Debug("Ledger mirrored", "rooms", flushed)
	}
	return flushed, errors.Join(errs...)
}
