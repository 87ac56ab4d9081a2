package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

type fakeStore struct {
	prior    []ledger.TransactionLine
	period   []ledger.TransactionLine
	accounts map[string]ledger.GLAccount
}

func (f *fakeStore) PropertyLinesBefore(_ context.Context, _, _ string, unitFilter, accountFilter ledger.IDFilter) ([]ledger.TransactionLine, error) {
	if unitFilter.None() || accountFilter.None() {
		return nil, nil
	}
	return f.prior, nil
}

func (f *fakeStore) PropertyLinesBetween(_ context.Context, _, _, _ string, unitFilter, accountFilter ledger.IDFilter) ([]ledger.TransactionLine, error) {
	if unitFilter.None() || accountFilter.None() {
		return nil, nil
	}
	return f.period, nil
}

func (f *fakeStore) GLAccountsByIDs(_ context.Context, ids []string) (map[string]ledger.GLAccount, error) {
	result := map[string]ledger.GLAccount{}
	for _, id := range ids {
		if account, ok := f.accounts[id]; ok {
			result[id] = account
		}
	}
	return result, nil
}

var _ Store = (*fakeStore)(nil)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func at(hour int) time.Time {
	return time.Date(2025, 1, 10, hour, 0, 0, 0, time.UTC)
}

func TestLedgerReportRunningBalance(t *testing.T) {
	store := &fakeStore{
		prior: []ledger.TransactionLine{
			{ID: "p1", GLAccountID: "gl-1", PostingType: ledger.Credit, Amount: dec("1000"), Date: "2024-12-01"},
		},
		period: []ledger.TransactionLine{
			{ID: "l1", GLAccountID: "gl-1", PostingType: ledger.Debit, Amount: dec("500"), Date: "2025-01-05", CreatedAt: at(9)},
			{ID: "l2", GLAccountID: "gl-1", PostingType: ledger.Credit, Amount: dec("200"), Date: "2025-01-08", CreatedAt: at(9)},
		},
		accounts: map[string]ledger.GLAccount{
			"gl-1": {ID: "gl-1", Name: "Security Deposits", AccountType: "liability"},
		},
	}

	rep, err := NewAggregator(store).LedgerReport(context.Background(), "prop-1", "2025-01-01", "2025-01-31", nil, nil)
	if err != nil {
		t.Fatalf("LedgerReport: %v", err)
	}
	if len(rep.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(rep.Groups))
	}

	group := rep.Groups[0]
	if !group.Prior.Equal(dec("-1000")) {
		t.Errorf("prior = %s, expected -1000", group.Prior)
	}
	if len(group.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(group.Lines))
	}
	if !group.Lines[0].Running.Equal(dec("-500")) {
		t.Errorf("running[0] = %s, expected -500", group.Lines[0].Running)
	}
	if !group.Lines[1].Running.Equal(dec("-700")) {
		t.Errorf("running[1] = %s, expected -700", group.Lines[1].Running)
	}
	if !group.Net.Equal(dec("300")) {
		t.Errorf("net = %s, expected 300", group.Net)
	}
	if !group.Ending.Equal(dec("-700")) {
		t.Errorf("ending = %s, expected -700", group.Ending)
	}

	// The last running balance equals the ending balance.
	if !group.Lines[len(group.Lines)-1].Running.Equal(group.Ending) {
		t.Error("last running balance must equal the ending balance")
	}
	// Ending = prior + net.
	if !group.Ending.Equal(group.Prior.Add(group.Net)) {
		t.Error("ending balance must equal prior + net")
	}
}

func TestLedgerReportSortsPostingsByDateThenCreation(t *testing.T) {
	store := &fakeStore{
		period: []ledger.TransactionLine{
			{ID: "later", GLAccountID: "gl-1", PostingType: ledger.Debit, Amount: dec("30"), Date: "2025-01-05", CreatedAt: at(15)},
			{ID: "next-day", GLAccountID: "gl-1", PostingType: ledger.Debit, Amount: dec("20"), Date: "2025-01-06", CreatedAt: at(8)},
			{ID: "earlier", GLAccountID: "gl-1", PostingType: ledger.Debit, Amount: dec("10"), Date: "2025-01-05", CreatedAt: at(9)},
		},
		accounts: map[string]ledger.GLAccount{
			"gl-1": {ID: "gl-1", Name: "Repairs", AccountType: "expense"},
		},
	}

	rep, err := NewAggregator(store).LedgerReport(context.Background(), "prop-1", "2025-01-01", "2025-01-31", nil, nil)
	if err != nil {
		t.Fatalf("LedgerReport: %v", err)
	}

	lines := rep.Groups[0].Lines
	order := []string{lines[0].Posting.ID, lines[1].Posting.ID, lines[2].Posting.ID}
	expected := []string{"earlier", "later", "next-day"}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("posting order = %v, expected %v", order, expected)
		}
	}
}

func TestLedgerReportGroupsSortedByTypeThenName(t *testing.T) {
	store := &fakeStore{
		period: []ledger.TransactionLine{
			{ID: "l1", GLAccountID: "gl-rent", PostingType: ledger.Credit, Amount: dec("100"), Date: "2025-01-05", CreatedAt: at(9)},
			{ID: "l2", GLAccountID: "gl-repairs", PostingType: ledger.Debit, Amount: dec("50"), Date: "2025-01-05", CreatedAt: at(9)},
			{ID: "l3", GLAccountID: "gl-cleaning", PostingType: ledger.Debit, Amount: dec("25"), Date: "2025-01-05", CreatedAt: at(9)},
		},
		accounts: map[string]ledger.GLAccount{
			"gl-rent":     {ID: "gl-rent", Name: "Rental Income", AccountType: "income"},
			"gl-repairs":  {ID: "gl-repairs", Name: "Repairs", AccountType: "expense"},
			"gl-cleaning": {ID: "gl-cleaning", Name: "Cleaning", AccountType: "expense"},
		},
	}

	rep, err := NewAggregator(store).LedgerReport(context.Background(), "prop-1", "2025-01-01", "2025-01-31", nil, nil)
	if err != nil {
		t.Fatalf("LedgerReport: %v", err)
	}
	if len(rep.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(rep.Groups))
	}

	expected := []string{"Cleaning", "Repairs", "Rental Income"}
	for i, group := range rep.Groups {
		if group.Account.Name != expected[i] {
			t.Errorf("group[%d] = %q, expected %q", i, group.Account.Name, expected[i])
		}
	}
}

func TestLedgerReportEmptyPeriodGroupStillAppears(t *testing.T) {
	store := &fakeStore{
		prior: []ledger.TransactionLine{
			{ID: "p1", GLAccountID: "gl-1", PostingType: ledger.Debit, Amount: dec("750"), Date: "2024-11-20"},
		},
		accounts: map[string]ledger.GLAccount{
			"gl-1": {ID: "gl-1", Name: "Repairs", AccountType: "expense"},
		},
	}

	rep, err := NewAggregator(store).LedgerReport(context.Background(), "prop-1", "2025-01-01", "2025-01-31", nil, nil)
	if err != nil {
		t.Fatalf("LedgerReport: %v", err)
	}
	if len(rep.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(rep.Groups))
	}

	group := rep.Groups[0]
	if len(group.Lines) != 0 {
		t.Errorf("expected no period lines, got %d", len(group.Lines))
	}
	if !group.Ending.Equal(group.Prior) {
		t.Errorf("ending = %s, expected prior %s", group.Ending, group.Prior)
	}
}

func TestLedgerReportExplicitEmptyFilters(t *testing.T) {
	store := &fakeStore{
		period: []ledger.TransactionLine{
			{ID: "l1", GLAccountID: "gl-1", PostingType: ledger.Debit, Amount: dec("50"), Date: "2025-01-05", CreatedAt: at(9)},
		},
		accounts: map[string]ledger.GLAccount{"gl-1": {ID: "gl-1"}},
	}

	rep, err := NewAggregator(store).LedgerReport(context.Background(), "prop-1", "2025-01-01", "2025-01-31", ledger.IDFilter{}, nil)
	if err != nil {
		t.Fatalf("LedgerReport: %v", err)
	}
	if len(rep.Groups) != 0 {
		t.Errorf("explicit empty unit selection produced %d groups", len(rep.Groups))
	}
}

func TestLedgerReportRejectsInvalidDates(t *testing.T) {
	store := &fakeStore{accounts: map[string]ledger.GLAccount{}}

	if _, err := NewAggregator(store).LedgerReport(context.Background(), "prop-1", "January", "2025-01-31", nil, nil); err == nil {
		t.Error("expected an error for a malformed from date")
	}
}

func TestLedgerReportUnknownAccountGetsPlaceholder(t *testing.T) {
	store := &fakeStore{
		period: []ledger.TransactionLine{
			{ID: "l1", GLAccountID: "gl-ghost", PostingType: ledger.Debit, Amount: dec("10"), Date: "2025-01-05", CreatedAt: at(9)},
		},
		accounts: map[string]ledger.GLAccount{},
	}

	rep, err := NewAggregator(store).LedgerReport(context.Background(), "prop-1", "2025-01-01", "2025-01-31", nil, nil)
	if err != nil {
		t.Fatalf("LedgerReport: %v", err)
	}
	if len(rep.Groups) != 1 || rep.Groups[0].Account.Name != "gl-ghost" {
		t.Errorf("unknown account should fall back to its id as label: %+v", rep.Groups)
	}
}
