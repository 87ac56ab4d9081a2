package billing

import (
	"testing"
	"time"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

func TestResolveStatus(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	yesterday := "2025-06-14"
	tomorrow := "2025-06-16"
	sameDay := "2025-06-15"

	tests := []struct {
		name     string
		current  ledger.BillStatus
		dueDate  *string
		paidDate *string
		expected ledger.BillStatus
	}{
		{"cancelled is sticky", ledger.StatusCancelled, &yesterday, &yesterday, ledger.StatusCancelled},
		{"partially paid is sticky", ledger.StatusPartiallyPaid, &yesterday, nil, ledger.StatusPartiallyPaid},
		{"partially paid ignores paid date", ledger.StatusPartiallyPaid, nil, &yesterday, ledger.StatusPartiallyPaid},
		{"paid is sticky", ledger.StatusPaid, &yesterday, nil, ledger.StatusPaid},
		{"paid date forces paid", ledger.StatusDue, &tomorrow, &yesterday, ledger.StatusPaid},
		{"paid date forces paid from overdue", ledger.StatusOverdue, &yesterday, &yesterday, ledger.StatusPaid},
		{"past due date is overdue", ledger.StatusDue, &yesterday, nil, ledger.StatusOverdue},
		{"due date today is not overdue", ledger.StatusDue, &sameDay, nil, ledger.StatusDue},
		{"future due date is due", ledger.StatusOverdue, &tomorrow, nil, ledger.StatusDue},
		{"no dates defaults to due", ledger.StatusNone, nil, nil, ledger.StatusDue},
		{"empty status with past due", ledger.StatusNone, &yesterday, nil, ledger.StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ResolveStatus(tt.current, tt.dueDate, tt.paidDate, today)
			if result != tt.expected {
				t.Errorf("ResolveStatus(%q, %v, %v) = %q, expected %q",
					tt.current, tt.dueDate, tt.paidDate, result, tt.expected)
			}
		})
	}
}

func TestResolveStatusTerminalStatesAreMonotonic(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	past := "2020-01-01"
	future := "2030-01-01"
	dates := []*string{nil, &past, &future}

	for _, terminal := range []ledger.BillStatus{ledger.StatusPaid, ledger.StatusCancelled} {
		for _, due := range dates {
			for _, paid := range dates {
				if got := ResolveStatus(terminal, due, paid, today); got != terminal {
					t.Errorf("ResolveStatus(%q, %v, %v) = %q, terminal status must not change",
						terminal, due, paid, got)
				}
			}
		}
	}
}

func TestResolveStatusIgnoresMalformedDueDate(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	bad := "not-a-date"

	if got := ResolveStatus(ledger.StatusDue, &bad, nil, today); got != ledger.StatusDue {
		t.Errorf("ResolveStatus with malformed due date = %q, expected %q", got, ledger.StatusDue)
	}
}
