// Package monthlylog maintains the set of transactions assigned to a monthly
// statement bucket and its financial summary.
package monthlylog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// Store is the ledger store surface the monthly-log ledger depends on.
type Store interface {
	MonthlyLogByID(ctx context.Context, id string) (*ledger.MonthlyLog, error)
	AssignTransactionToLog(ctx context.Context, logID, txID string) error
	UnassignTransactionFromLog(ctx context.Context, logID, txID string) error
	DeleteLogTransaction(ctx context.Context, logID, txID string) (bool, error)
	TransactionsForMonthlyLog(ctx context.Context, logID string) ([]ledger.Transaction, error)
}

var _ Store = (*ledger.Store)(nil)

// AssignResult is the per-transaction outcome of a batch assignment.
type AssignResult struct {
	TransactionID string
	Success       bool
	Error         string
}

// Summary is the financial summary of one monthly log's assigned set.
// Totals are absolute amounts per transaction type.
type Summary struct {
	LogID            string
	ChargesTotal     decimal.Decimal
	CreditsTotal     decimal.Decimal
	PaymentsTotal    decimal.Decimal
	TotalRentOwed    decimal.Decimal
	RemainingBalance decimal.Decimal
	TransactionCount int
}

// Ledger maintains monthly-log transaction assignments.
type Ledger struct {
	store Store
}

// NewLedger creates a monthly-log Ledger.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Assign assigns the given transactions to the log. Assignment is idempotent
// per transaction: re-assigning a member is a no-op success. A failure on one
// transaction does not roll back earlier successes; the result reports each
// transaction individually.
func (l *Ledger) Assign(ctx context.Context, logID string, txIDs []string) ([]AssignResult, error) {
	if _, err := l.store.MonthlyLogByID(ctx, logID); err != nil {
		return nil, fmt.Errorf("assign to monthly log %s: %w", logID, err)
	}

	results := make([]AssignResult, 0, len(txIDs))
	seen := make(map[string]bool)
	for _, txID := range txIDs {
		if seen[txID] {
			continue
		}
		seen[txID] = true

		if err := l.store.AssignTransactionToLog(ctx, logID, txID); err != nil {
			msg := "failed to assign transaction"
			if errors.Is(err, ledger.ErrNotFound) {
				msg = "transaction not found"
			} else {
				slog.Warn("monthly log assignment failed", "log_id", logID, "transaction_id", txID, "error", err)
			}
			results = append(results, AssignResult{TransactionID: txID, Error: msg})
			continue
		}
		results = append(results, AssignResult{TransactionID: txID, Success: true})
	}
	return results, nil
}

// Unassign removes a transaction from the log. Removing a non-member is a
// no-op.
func (l *Ledger) Unassign(ctx context.Context, logID, txID string) error {
	if err := l.store.UnassignTransactionFromLog(ctx, logID, txID); err != nil {
		return fmt.Errorf("unassign transaction %s from monthly log %s: %w", txID, logID, err)
	}
	return nil
}

// Delete permanently removes the underlying transaction from the log's scope.
// Unlike Unassign this deletes the transaction row itself; it is the harder
// removal used for transactions created in error. Deleting a transaction that
// is not assigned to the log is a no-op.
func (l *Ledger) Delete(ctx context.Context, logID, txID string) error {
	deleted, err := l.store.DeleteLogTransaction(ctx, logID, txID)
	if err != nil {
		return fmt.Errorf("delete transaction %s from monthly log %s: %w", txID, logID, err)
	}
	if deleted {
		slog.Info("deleted monthly log transaction", "log_id", logID, "transaction_id", txID)
	}
	return nil
}

// Transactions returns the log's assigned transactions, newest first.
func (l *Ledger) Transactions(ctx context.Context, logID string) ([]ledger.Transaction, error) {
	txs, err := l.store.TransactionsForMonthlyLog(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for monthly log %s: %w", logID, err)
	}
	return txs, nil
}

// Summarize computes the financial summary of the log's assigned set.
// Charges drive the rent owed; credits and payments reduce the remaining
// balance. The balance is not clamped, so an overpaid log goes negative.
func (l *Ledger) Summarize(ctx context.Context, logID string) (*Summary, error) {
	if _, err := l.store.MonthlyLogByID(ctx, logID); err != nil {
		return nil, fmt.Errorf("summarize monthly log %s: %w", logID, err)
	}

	txs, err := l.store.TransactionsForMonthlyLog(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("summarize monthly log %s: %w", logID, err)
	}

	summary := &Summary{LogID: logID, TransactionCount: len(txs)}
	for _, tx := range txs {
		amount := tx.TotalAmount.Abs()
		switch tx.Type {
		case ledger.TypeCharge, ledger.TypeBill:
			summary.ChargesTotal = summary.ChargesTotal.Add(amount)
		case ledger.TypeCredit:
			summary.CreditsTotal = summary.CreditsTotal.Add(amount)
		case ledger.TypePayment, ledger.TypeCheck:
			summary.PaymentsTotal = summary.PaymentsTotal.Add(amount)
		}
	}

	summary.TotalRentOwed = summary.ChargesTotal
	summary.RemainingBalance = summary.ChargesTotal.
		Sub(summary.CreditsTotal).
		Sub(summary.PaymentsTotal)

	return summary, nil
}
