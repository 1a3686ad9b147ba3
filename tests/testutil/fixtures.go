// Package testutil wires Postgres-backed fixtures for integration tests.
package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/adapter/rates"
	"github.com/iho/fintrack/internal/adapter/repository/postgres"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/clock"
	"github.com/iho/fintrack/internal/infrastructure/idgen"
	infrapostgres "github.com/iho/fintrack/internal/infrastructure/postgres"
	"github.com/iho/fintrack/internal/infrastructure/retry"
	"github.com/iho/fintrack/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations.
// The test is skipped when DATABASE_URL is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	if err := infrapostgres.RunMigrations(dbURL, migrationsPath(t), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infrapostgres.NewPoolWithConfig(ctx, infrapostgres.PoolConfig{
		DatabaseURL: dbURL,
		MaxConns:    20,
		MinConns:    1,
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(db.Cleanup)
	return db
}

// migrationsPath finds the migrations directory from the package under test.
func migrationsPath(t *testing.T) string {
	t.Helper()

	if p := os.Getenv("MIGRATIONS_PATH"); p != "" {
		return p
	}
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				t.Fatalf("failed to resolve migrations path: %v", err)
			}
			return abs
		}
	}
	t.Fatal("migrations directory not found")
	return ""
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE finalization_logs, monthly_summaries, entries, ledgers CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Ledger bundles a LedgerUseCase over Postgres with its repositories.
type Ledger struct {
	UseCase    *usecase.LedgerUseCase
	Reconciler *usecase.ReconciliationUseCase
	Entries    *postgres.EntryRepository
	Summaries  *postgres.SummaryRepository
	Ledgers    *postgres.LedgerRepository
	Clock      *clock.Manual
}

// NewLedger wires the ledger over db. The clock starts at now and conflicts
// are retried up to attempts times.
func (db *TestDB) NewLedger(now time.Time, attempts int) *Ledger {
	l := &Ledger{
		Entries:   postgres.NewEntryRepository(db.Pool),
		Summaries: postgres.NewSummaryRepository(db.Pool),
		Ledgers:   postgres.NewLedgerRepository(db.Pool),
		Clock:     clock.NewManual(now),
	}

	l.UseCase = usecase.NewLedgerUseCase(usecase.LedgerConfig{
		TxManager:   postgres.NewTxManager(db.Pool),
		EntryRepo:   l.Entries,
		SummaryRepo: l.Summaries,
		LogRepo:     postgres.NewFinalizationLogRepository(db.Pool),
		LedgerRepo:  l.Ledgers,
		IDGen:       idgen.NewULIDGeneratorWithClock(l.Clock.Now),
		Normalizer:  usecase.NewCurrencyNormalizer(rates.NewPeggedProvider(rates.DefaultPeg, nil, nil), nil, "XAF", time.Second),
		Retrier: retry.New(retry.Config{
			Name:            "integration",
			MaxAttempts:     attempts,
			InitialInterval: time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Retryable: func(err error) bool {
				return errors.Is(err, domain.ErrVersionConflict)
			},
		}),
		Clock:  l.Clock,
		Logger: zerolog.Nop(),
	})
	l.Reconciler = usecase.NewReconciliationUseCase(l.Entries, l.Summaries, l.UseCase, l.Clock)

	return l
}

// Credit records a base-currency credit dated d.
func (l *Ledger) Credit(t *testing.T, owner string, d time.Time, amount int64) *domain.Entry {
	t.Helper()
	return l.add(t, usecase.CreateEntryInput{OwnerID: owner, Date: &d, Credit: decimal.NewFromInt(amount)})
}

// Debit records a base-currency debit dated d.
func (l *Ledger) Debit(t *testing.T, owner string, d time.Time, amount int64) *domain.Entry {
	t.Helper()
	return l.add(t, usecase.CreateEntryInput{OwnerID: owner, Date: &d, Debit: decimal.NewFromInt(amount)})
}

func (l *Ledger) add(t *testing.T, input usecase.CreateEntryInput) *domain.Entry {
	t.Helper()

	entry, err := l.UseCase.CreateEntry(context.Background(), input)
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}
	return entry
}
