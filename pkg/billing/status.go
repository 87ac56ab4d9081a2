// Package billing implements bill settlement accounting: effective status
// derivation, payment reconciliation across the local and external payment
// keyspaces, and batch check-payment submission against Buildium.
package billing

import (
	"time"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// ResolveStatus derives a bill's effective status from its current status and
// dates. Rules are evaluated in order; the first match wins:
//
//  1. Cancelled is sticky.
//  2. Partially paid is sticky (payment-derived states are not overridden by
//     date logic).
//  3. Paid is sticky.
//  4. A paid date means Paid.
//  5. A due date before today (UTC, date-only) means Overdue.
//  6. Otherwise Due.
//
// The current status must already reflect payment-amount-derived state (see
// Reconciler); this function does not know about partial payments on its own.
func ResolveStatus(current ledger.BillStatus, dueDate, paidDate *string, today time.Time) ledger.BillStatus {
	switch current {
	case ledger.StatusCancelled:
		return ledger.StatusCancelled
	case ledger.StatusPartiallyPaid:
		return ledger.StatusPartiallyPaid
	case ledger.StatusPaid:
		return ledger.StatusPaid
	}

	if paidDate != nil && *paidDate != "" {
		return ledger.StatusPaid
	}

	if dueDate != nil && *dueDate != "" {
		due, err := ledger.ParseDate(*dueDate)
		if err == nil && due.Before(ledger.DateOnly(today)) {
			return ledger.StatusOverdue
		}
	}

	return ledger.StatusDue
}

// ResolveStatusNow is ResolveStatus evaluated against the current UTC date.
func ResolveStatusNow(current ledger.BillStatus, dueDate, paidDate *string) ledger.BillStatus {
	return ResolveStatus(current, dueDate, paidDate, time.Now().UTC())
}
