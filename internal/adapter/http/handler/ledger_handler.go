package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// LedgerService defines the ledger-wide behavior needed by LedgerHandler.
type LedgerService interface {
	CurrentBalance(ctx context.Context, ownerID string) (decimal.Decimal, error)
	FinalizeMonth(ctx context.Context, ownerID string) (*domain.MonthlySummary, error)
	ListSummaries(ctx context.Context, ownerID string, limit, offset int) ([]*domain.MonthlySummary, error)
	ListFinalizations(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FinalizationLog, error)
}

// Reconciler verifies stored running balances.
type Reconciler interface {
	Reconcile(ctx context.Context, ownerID string, repair bool) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles balance, finalization and consistency requests.
type LedgerHandler struct {
	ledgerUC     LedgerService
	reconciler   Reconciler
	baseCurrency string
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconciler Reconciler, baseCurrency string) *LedgerHandler {
	return &LedgerHandler{
		ledgerUC:     ledgerUC,
		reconciler:   reconciler,
		baseCurrency: baseCurrency,
	}
}

// Balance returns the owner's current balance.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	balance, err := h.ledgerUC.CurrentBalance(r.Context(), owner)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		OwnerID:  owner,
		Balance:  balance.StringFixed(2),
		Currency: h.baseCurrency,
	})
}

// Finalize archives every active entry and records a summary.
func (h *LedgerHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	summary, err := h.ledgerUC.FinalizeMonth(r.Context(), owner)
	if err != nil {
		writeDomainError(w, "failed to finalize month", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SummaryFromDomain(summary))
}

// Summaries lists monthly summaries, newest first.
func (h *LedgerHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	summaries, err := h.ledgerUC.ListSummaries(r.Context(), owner, parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list summaries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummariesFromDomain(summaries))
}

// Finalizations lists the finalization log, newest first.
func (h *LedgerHandler) Finalizations(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	logs, err := h.ledgerUC.ListFinalizations(r.Context(), owner, parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list finalizations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FinalizationsFromDomain(logs))
}

// CheckConsistency verifies stored balances, repairing them when repair=true.
// An inconsistent, unrepaired ledger answers 409.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	report, err := h.reconciler.Reconcile(r.Context(), owner, parseBoolQuery(r, "repair"))
	if err != nil {
		writeDomainError(w, "failed to check consistency", err)
		return
	}

	status := http.StatusOK
	if !report.Consistent && !report.Repaired {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ConsistencyFromReport(report))
}
