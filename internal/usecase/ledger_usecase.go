package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// errNotDue aborts an auto-finalization transaction when the owner's month was already handled.
var errNotDue = errors.New("auto-finalization not due")

// LedgerConfig holds the dependencies of a LedgerUseCase.
type LedgerConfig struct {
	TxManager   TransactionManager
	EntryRepo   EntryRepository
	SummaryRepo SummaryRepository
	LogRepo     FinalizationLogRepository
	LedgerRepo  LedgerRepository
	IDGen       IDGenerator
	Normalizer  *CurrencyNormalizer
	// Retrier re-runs a mutation that failed with domain.ErrVersionConflict.
	Retrier  Retrier
	Clock    Clock
	Notifier Notifier
	Budget   BudgetPolicy
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
	// TxTimeout bounds each transaction attempt. Defaults to DefaultTransactionTimeout.
	TxTimeout time.Duration
}

// LedgerUseCase owns every mutation of an owner's ledger. Each mutation runs in a
// single transaction that rewrites running balances and bumps the owner's ledger head.
type LedgerUseCase struct {
	txManager    TransactionManager
	entryRepo    EntryRepository
	summaryRepo  SummaryRepository
	logRepo      FinalizationLogRepository
	ledgerRepo   LedgerRepository
	idGen        IDGenerator
	normalizer   *CurrencyNormalizer
	recalculator *BalanceRecalculator
	retrier      Retrier
	clock        Clock
	notifier     Notifier
	budget       BudgetPolicy
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	txTimeout    time.Duration
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(cfg LedgerConfig) *LedgerUseCase {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = DefaultTransactionTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.Retrier == nil {
		cfg.Retrier = noRetry{}
	}

	return &LedgerUseCase{
		txManager:    cfg.TxManager,
		entryRepo:    cfg.EntryRepo,
		summaryRepo:  cfg.SummaryRepo,
		logRepo:      cfg.LogRepo,
		ledgerRepo:   cfg.LedgerRepo,
		idGen:        cfg.IDGen,
		normalizer:   cfg.Normalizer,
		recalculator: NewBalanceRecalculator(cfg.EntryRepo, cfg.SummaryRepo, cfg.Metrics),
		retrier:      cfg.Retrier,
		clock:        cfg.Clock,
		notifier:     cfg.Notifier,
		budget:       cfg.Budget,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		txTimeout:    cfg.TxTimeout,
	}
}

// effects collects what a committed mutation must signal afterwards.
type effects struct {
	before decimal.Decimal
	after  decimal.Decimal
	budget []budgetCheck
}

type budgetCheck struct {
	category string
	period   domain.Period
}

type applyFunc func(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, fx *effects) error

// mutate runs apply in a fresh transaction per attempt, retrying version conflicts.
// prepare, when set, runs before each attempt outside the transaction.
func (uc *LedgerUseCase) mutate(ctx context.Context, ownerID, operation string, prepare func(ctx context.Context) error, apply applyFunc) error {
	var fx *effects
	attempt := 0

	err := uc.retrier.Retry(ctx, func() error {
		attempt++
		if attempt > 1 {
			if uc.metrics != nil {
				uc.metrics.VersionConflicts.Inc()
			}
			uc.logger.Warn().
				Str("owner_id", ownerID).
				Str("operation", operation).
				Int("attempt", attempt).
				Msg("retrying ledger mutation after version conflict")
		}

		if prepare != nil {
			if err := prepare(ctx); err != nil {
				return err
			}
		}

		fx = &effects{}
		return uc.runTx(ctx, ownerID, fx, apply)
	})

	if err != nil {
		outcome := "error"
		if errors.Is(err, errNotDue) {
			outcome = "skipped"
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			outcome = "conflict"
			if uc.metrics != nil {
				uc.metrics.ConflictsExhausted.Inc()
			}
			err = fmt.Errorf("%w: %w", domain.ErrConflict, err)
		}
		uc.countMutation(operation, outcome)
		return err
	}

	uc.countMutation(operation, "ok")
	uc.dispatch(ctx, ownerID, fx)

	return nil
}

func (uc *LedgerUseCase) runTx(ctx context.Context, ownerID string, fx *effects, apply applyFunc) error {
	txCtx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(txCtx)
	}()

	now := uc.clock.Now().UTC()

	ledger, err := uc.ledgerRepo.GetOrCreate(txCtx, tx, ownerID, now)
	if err != nil {
		return err
	}

	fx.before, err = uc.recalculator.CurrentBalance(txCtx, tx, ownerID)
	if err != nil {
		return err
	}

	if err := apply(txCtx, tx, ledger, now, fx); err != nil {
		return err
	}

	ledger.UpdatedAt = now
	if err := uc.ledgerRepo.Save(txCtx, tx, ledger); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// dispatch fires post-commit notifications. Failures are logged and never surface.
func (uc *LedgerUseCase) dispatch(ctx context.Context, ownerID string, fx *effects) {
	if uc.notifier == nil || fx == nil {
		return
	}

	if domain.CrossedToNonPositive(fx.before, fx.after) {
		uc.notifier.NotifyLowBalance(ctx, ownerID, fx.after)
	}

	if uc.budget == nil {
		return
	}

	for _, check := range fx.budget {
		limit, ok := uc.budget.Limit(ctx, ownerID, check.category)
		if !ok {
			continue
		}

		spent, err := uc.entryRepo.SumDebits(ctx, ownerID, check.category, check.period.Start(), check.period.End())
		if err != nil {
			uc.logger.Error().Err(err).
				Str("owner_id", ownerID).
				Str("category", check.category).
				Msg("budget check failed")
			continue
		}

		if spent.GreaterThan(limit) {
			uc.notifier.NotifyBudgetExceeded(ctx, ownerID, check.category, spent, limit)
		}
	}
}

func (uc *LedgerUseCase) countMutation(operation, outcome string) {
	if uc.metrics != nil {
		uc.metrics.EntryMutations.WithLabelValues(operation, outcome).Inc()
	}
}

// CurrentBalance returns the owner's balance: the last active entry's balance,
// else the last closing balance, else zero.
func (uc *LedgerUseCase) CurrentBalance(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return decimal.Zero, err
	}

	return uc.recalculator.CurrentBalance(ctx, nil, ownerID)
}

// FinalizeMonth archives every active entry and records the closing balance.
func (uc *LedgerUseCase) FinalizeMonth(ctx context.Context, ownerID string) (*domain.MonthlySummary, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}

	var summary *domain.MonthlySummary
	err := uc.mutate(ctx, ownerID, "finalize", nil,
		func(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, fx *effects) error {
			var err error
			summary, err = uc.finalize(ctx, tx, ledger, now, false, fx)
			return err
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("owner_id", ownerID).
		Str("period", summary.Period.String()).
		Str("closing_balance", summary.ClosingBalance.String()).
		Int("entries", summary.EntryCount).
		Msg("ledger finalized")

	return summary, nil
}

// FinalizeIfDue finalizes the owner's ledger automatically once per calendar month.
// It returns domain.ErrNothingToFinalize when the owner was already handled this month
// or had nothing to archive; the month is still recorded in the latter case.
func (uc *LedgerUseCase) FinalizeIfDue(ctx context.Context, ownerID string) (*domain.MonthlySummary, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}

	var summary *domain.MonthlySummary
	err := uc.mutate(ctx, ownerID, "auto_finalize", nil,
		func(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, fx *effects) error {
			summary = nil
			current := domain.PeriodOf(now)

			if !ledger.DueForAutoFinalization(now) {
				return errNotDue
			}

			if !ledger.AutoFinalizedThrough.IsZero() {
				s, err := uc.finalize(ctx, tx, ledger, now, true, fx)
				switch {
				case errors.Is(err, domain.ErrNothingToFinalize):
					fx.after = fx.before
				case err != nil:
					return err
				default:
					summary = s
				}
			} else {
				fx.after = fx.before
			}

			ledger.AutoFinalizedThrough = current
			return nil
		})
	if errors.Is(err, errNotDue) {
		return nil, domain.ErrNothingToFinalize
	}
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, domain.ErrNothingToFinalize
	}

	uc.logger.Info().
		Str("owner_id", ownerID).
		Str("period", summary.Period.String()).
		Str("closing_balance", summary.ClosingBalance.String()).
		Msg("ledger finalized automatically")

	return summary, nil
}

// finalize archives the active set inside tx. The summary period is the month of the
// last active entry; its closing balance is that entry's running balance.
func (uc *LedgerUseCase) finalize(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, automatic bool, fx *effects) (*domain.MonthlySummary, error) {
	rec, err := uc.recalculator.Recalculate(ctx, tx, ledger.OwnerID, now)
	if err != nil {
		return nil, err
	}

	if len(rec.Entries) == 0 {
		return nil, domain.ErrNothingToFinalize
	}

	last := rec.Entries[len(rec.Entries)-1]

	if err := uc.entryRepo.MarkFinalized(ctx, tx, rec.Entries, now); err != nil {
		return nil, err
	}

	summary := &domain.MonthlySummary{
		ID:             uc.idGen.Generate(),
		OwnerID:        ledger.OwnerID,
		Period:         last.Period(),
		ClosingBalance: last.Balance,
		EntryCount:     len(rec.Entries),
		CreatedAt:      now,
	}
	if err := uc.summaryRepo.Create(ctx, tx, summary); err != nil {
		return nil, err
	}

	if err := uc.logRepo.Create(ctx, tx, &domain.FinalizationLog{
		ID:             uc.idGen.Generate(),
		OwnerID:        ledger.OwnerID,
		SummaryID:      summary.ID,
		Period:         summary.Period,
		ClosingBalance: summary.ClosingBalance,
		Automatic:      automatic,
		FinalizedAt:    now,
	}); err != nil {
		return nil, err
	}

	finalizedAt := now
	ledger.LastFinalizedAt = &finalizedAt
	fx.after = summary.ClosingBalance

	if uc.metrics != nil {
		trigger := "manual"
		if automatic {
			trigger = "automatic"
		}
		uc.metrics.Finalizations.WithLabelValues(trigger).Inc()
	}

	return summary, nil
}

// ListSummaries returns the owner's monthly summaries, newest first.
func (uc *LedgerUseCase) ListSummaries(ctx context.Context, ownerID string, limit, offset int) ([]*domain.MonthlySummary, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.summaryRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// ListFinalizations returns the owner's finalization log, newest first.
func (uc *LedgerUseCase) ListFinalizations(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FinalizationLog, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.logRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// Recalculate rewrites the owner's running balances in one transaction.
func (uc *LedgerUseCase) Recalculate(ctx context.Context, ownerID string) (*Recalculation, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}

	var rec *Recalculation
	err := uc.mutate(ctx, ownerID, "recalculate", nil,
		func(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, fx *effects) error {
			var err error
			rec, err = uc.recalculator.Recalculate(ctx, tx, ledger.OwnerID, now)
			if err != nil {
				return err
			}
			fx.after = rec.Closing
			return nil
		})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error { return operation() }
