package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// ReconcilerStore is the slice of the ledger store the reconciler reads from.
type ReconcilerStore interface {
	BillsByIDs(ctx context.Context, ids []string, vendorFilter ledger.IDFilter) ([]ledger.Transaction, error)
	LinesByTransactionIDs(ctx context.Context, txIDs []string) ([]ledger.TransactionLine, error)
	PaymentsByBillIDs(ctx context.Context, billIDs []string) (map[string][]ledger.Transaction, error)
	PaymentsByExternalBillIDs(ctx context.Context, externalIDs []int64) (map[int64][]ledger.Transaction, error)
	UpdateBillStatus(ctx context.Context, id string, from, to ledger.BillStatus) (bool, error)
}

var _ ReconcilerStore = (*ledger.Store)(nil)

// BillBalance is the reconciled settlement state of a single bill.
type BillBalance struct {
	Bill            ledger.Transaction
	DueAmount       decimal.Decimal
	PaidTotal       decimal.Decimal
	Remaining       decimal.Decimal
	EffectiveStatus ledger.BillStatus
}

// Payable reports whether the bill can still accept payments.
func (b BillBalance) Payable() bool {
	if b.EffectiveStatus == ledger.StatusPaid || b.EffectiveStatus == ledger.StatusCancelled {
		return false
	}
	return b.Remaining.IsPositive()
}

// Reconciler computes how much of a bill remains unpaid by combining the two
// independent payment keyspaces: payments referencing the bill's local id,
// and payments referencing its external (Buildium) bill id. The local
// keyspace is authoritative whenever any local payment exists; the external
// keyspace is consulted only as a fallback. The two are never summed.
type Reconciler struct {
	store ReconcilerStore
	now   func() time.Time
}

// NewReconciler creates a Reconciler over the given store.
func NewReconciler(store ReconcilerStore) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// ReconcileBills computes the balance and effective status of each bill.
// The result order matches the input order. Reads only; status corrections
// are persisted separately via PersistStatusCorrections.
func (r *Reconciler) ReconcileBills(ctx context.Context, bills []ledger.Transaction) ([]BillBalance, error) {
	if len(bills) == 0 {
		return nil, nil
	}

	billIDs := make([]string, 0, len(bills))
	var externalIDs []int64
	for _, bill := range bills {
		billIDs = append(billIDs, bill.ID)
		if bill.BuildiumBillID != nil {
			externalIDs = append(externalIDs, *bill.BuildiumBillID)
		}
	}

	lines, err := r.store.LinesByTransactionIDs(ctx, billIDs)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load bill lines: %w", err)
	}

	debitTotals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		if line.PostingType.IsCredit() {
			continue
		}
		debitTotals[line.TransactionID] = debitTotals[line.TransactionID].Add(line.Amount.Abs())
	}

	localPayments, err := r.store.PaymentsByBillIDs(ctx, billIDs)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load local payments: %w", err)
	}

	externalPayments, err := r.store.PaymentsByExternalBillIDs(ctx, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load external payments: %w", err)
	}

	today := r.now().UTC()
	balances := make([]BillBalance, 0, len(bills))
	for _, bill := range bills {
		due := bill.TotalAmount
		if !due.IsPositive() {
			due = debitTotals[bill.ID]
		}

		paid, found := sumPayments(localPayments[bill.ID])
		if !found && bill.BuildiumBillID != nil {
			paid, _ = sumPayments(externalPayments[*bill.BuildiumBillID])
		}

		status := bill.Status
		switch {
		case paid.IsPositive() && paid.LessThan(due):
			status = ledger.StatusPartiallyPaid
		case due.IsPositive() && paid.GreaterThanOrEqual(due):
			status = ledger.StatusPaid
		}

		effective := ResolveStatus(status, bill.DueDate, bill.PaidDate, today)

		remaining := due.Sub(paid)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		balances = append(balances, BillBalance{
			Bill:            bill,
			DueAmount:       due,
			PaidTotal:       paid,
			Remaining:       remaining,
			EffectiveStatus: effective,
		})
	}

	return balances, nil
}

// ReconcileBillsByID loads the given bills and reconciles them.
func (r *Reconciler) ReconcileBillsByID(ctx context.Context, billIDs []string) ([]BillBalance, error) {
	bills, err := r.store.BillsByIDs(ctx, billIDs, nil)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load bills: %w", err)
	}
	return r.ReconcileBills(ctx, bills)
}

// sumPayments sums the absolute amounts of non-cancelled payment records.
// The second return is whether any countable record existed; it drives the
// keyspace precedence decision.
func sumPayments(payments []ledger.Transaction) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for _, p := range payments {
		if p.Status == ledger.StatusCancelled {
			continue
		}
		amount := p.TotalAmount.Abs()
		if !amount.IsPositive() {
			continue
		}
		total = total.Add(amount)
		found = true
	}
	return total, found
}

// StatusCorrection records a divergence between a bill's stored status and
// its reconciled effective status.
type StatusCorrection struct {
	BillID string
	From   ledger.BillStatus
	To     ledger.BillStatus
}

// StatusCorrections returns the corrections implied by a set of balances.
func StatusCorrections(balances []BillBalance) []StatusCorrection {
	var corrections []StatusCorrection
	for _, b := range balances {
		if b.EffectiveStatus != b.Bill.Status {
			corrections = append(corrections, StatusCorrection{
				BillID: b.Bill.ID,
				From:   b.Bill.Status,
				To:     b.EffectiveStatus,
			})
		}
	}
	return corrections
}

// PersistStatusCorrections writes back reconciled statuses that diverge from
// the stored ones. It is an explicit, idempotent command for callers with
// write authority; read paths never invoke it. Each write is a compare-and-set
// on the stored status, so a row changed by a concurrent writer is skipped and
// picked up on the next reconciliation. Returns the number of rows corrected.
func (r *Reconciler) PersistStatusCorrections(ctx context.Context, balances []BillBalance) (int, error) {
	applied := 0
	for _, c := range StatusCorrections(balances) {
		updated, err := r.store.UpdateBillStatus(ctx, c.BillID, c.From, c.To)
		if err != nil {
			return applied, fmt.Errorf("persist status correction for bill %s: %w", c.BillID, err)
		}
		if !updated {
			slog.Warn("bill status changed concurrently, correction skipped",
				"bill_id", c.BillID, "from", string(c.From), "to", string(c.To))
			continue
		}
		slog.Info("corrected bill status",
			"bill_id", c.BillID, "from", string(c.From), "to", string(c.To))
		applied++
	}
	return applied, nil
}
