// Package memory is an in-process ledger store with optimistic transactions.
// Writes are staged per transaction and validated against committed versions on commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction already committed or rolled back")

	errForeignTx = errors.New("transaction does not belong to this store")
	errNoTx      = errors.New("write requires a transaction")
)

// absent marks a staged row that must not exist in committed state on commit.
const absent int64 = -1

// Store holds committed ledger state. It implements usecase.TransactionManager.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*domain.Entry
	ledgers   map[string]*domain.Ledger
	summaries []*domain.MonthlySummary
	logs      []*domain.FinalizationLog
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*domain.Entry),
		ledgers: make(map[string]*domain.Ledger),
	}
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:      s,
		entries:    make(map[string]*domain.Entry),
		entryBase:  make(map[string]int64),
		ledgers:    make(map[string]*domain.Ledger),
		ledgerBase: make(map[string]int64),
	}, nil
}

// Ping always succeeds; it lets the store stand in for a database in health checks.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Tx stages writes until Commit.
type Tx struct {
	store *Store

	// entries maps id to the staged row; a nil value is a staged delete.
	entries map[string]*domain.Entry
	// entryBase records the committed version each touched entry had when first
	// touched, or absent when the entry did not exist yet.
	entryBase map[string]int64

	ledgers    map[string]*domain.Ledger
	ledgerBase map[string]int64

	summaries []*domain.MonthlySummary
	logs      []*domain.FinalizationLog

	finishedErr error
}

// Commit validates every touched row against committed state and applies the
// staged writes atomically. A row changed by another transaction yields
// domain.ErrVersionConflict and nothing is applied.
func (t *Tx) Commit(ctx context.Context) error {
	if t.finishedErr != nil {
		return t.finishedErr
	}
	if err := ctx.Err(); err != nil {
		t.finishedErr = ErrTxDone
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t.finishedErr = ErrTxDone

	for id, base := range t.entryBase {
		if err := checkBase(s.entries[id] != nil, versionOfEntry(s.entries[id]), base); err != nil {
			return fmt.Errorf("entry %s: %w", id, err)
		}
	}
	for owner, base := range t.ledgerBase {
		if err := checkBase(s.ledgers[owner] != nil, versionOfLedger(s.ledgers[owner]), base); err != nil {
			return fmt.Errorf("ledger %s: %w", owner, err)
		}
	}

	for id, e := range t.entries {
		if e == nil {
			delete(s.entries, id)
			continue
		}
		s.entries[id] = e
	}
	for owner, l := range t.ledgers {
		s.ledgers[owner] = l
	}
	s.summaries = append(s.summaries, t.summaries...)
	s.logs = append(s.logs, t.logs...)

	return nil
}

// Rollback discards staged writes. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback(context.Context) error {
	if t.finishedErr == nil {
		t.finishedErr = ErrTxDone
	}
	return nil
}

func (t *Tx) active() error {
	return t.finishedErr
}

func checkBase(exists bool, version, base int64) error {
	if base == absent {
		if exists {
			return domain.ErrVersionConflict
		}
		return nil
	}
	if !exists || version != base {
		return domain.ErrVersionConflict
	}
	return nil
}

func versionOfEntry(e *domain.Entry) int64 {
	if e == nil {
		return absent
	}
	return e.Version
}

func versionOfLedger(l *domain.Ledger) int64 {
	if l == nil {
		return absent
	}
	return l.Version
}

// txFrom unwraps a usecase.Transaction. A nil tx reads committed state only.
func (s *Store) txFrom(tx usecase.Transaction) (*Tx, error) {
	if tx == nil {
		return nil, nil
	}

	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}
	if err := t.active(); err != nil {
		return nil, err
	}

	return t, nil
}

// entry returns the row visible to t (staged first, then committed).
// Callers must hold s.mu.
func (s *Store) entry(t *Tx, id string) *domain.Entry {
	if t != nil {
		if e, ok := t.entries[id]; ok {
			return e
		}
	}
	return s.entries[id]
}

// touchEntry records the committed version of id the first time t writes it.
// Callers must hold s.mu.
func (t *Tx) touchEntry(id string) {
	if _, ok := t.entryBase[id]; ok {
		return
	}
	t.entryBase[id] = versionOfEntry(t.store.entries[id])
}

func (t *Tx) touchLedger(owner string) {
	if _, ok := t.ledgerBase[owner]; ok {
		return
	}
	t.ledgerBase[owner] = versionOfLedger(t.store.ledgers[owner])
}
