// Package report builds grouped general-ledger reports with running balances
// for a property over a date range.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// Store is the ledger read surface the aggregator depends on.
type Store interface {
	PropertyLinesBefore(ctx context.Context, propertyID, before string, unitFilter, accountFilter ledger.IDFilter) ([]ledger.TransactionLine, error)
	PropertyLinesBetween(ctx context.Context, propertyID, from, to string, unitFilter, accountFilter ledger.IDFilter) ([]ledger.TransactionLine, error)
	GLAccountsByIDs(ctx context.Context, ids []string) (map[string]ledger.GLAccount, error)
}

var _ Store = (*ledger.Store)(nil)

// Line is one period posting with its signed value and the running balance
// after applying it.
type Line struct {
	Posting ledger.TransactionLine
	Signed  decimal.Decimal
	Running decimal.Decimal
}

// AccountGroup is one GL account's slice of the report.
type AccountGroup struct {
	Account ledger.GLAccount
	Prior   decimal.Decimal
	Net     decimal.Decimal
	Ending  decimal.Decimal
	Lines   []Line
}

// Report is a property ledger over a date range, grouped by GL account.
type Report struct {
	PropertyID string
	From       string
	To         string
	Groups     []AccountGroup
}

// Aggregator builds ledger reports from the store.
type Aggregator struct {
	store Store
}

// NewAggregator creates an Aggregator.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// LedgerReport builds the ledger for a property over [from, to] inclusive.
// The unit and account filters are three-state: nil means no filter, an empty
// non-nil filter is an explicit empty selection and yields an empty report.
//
// Within each group, period postings are sorted by date then creation time;
// the running balance starts at the group's prior balance and accumulates
// each posting's signed value in that order. A group with prior activity but
// no period postings still appears, with its ending balance equal to prior.
func (a *Aggregator) LedgerReport(ctx context.Context, propertyID, from, to string, unitFilter, accountFilter ledger.IDFilter) (*Report, error) {
	report := &Report{PropertyID: propertyID, From: from, To: to}
	if unitFilter.None() || accountFilter.None() {
		return report, nil
	}
	if _, err := ledger.ParseDate(from); err != nil {
		return nil, fmt.Errorf("ledger report: invalid from date %q: %w", from, err)
	}
	if _, err := ledger.ParseDate(to); err != nil {
		return nil, fmt.Errorf("ledger report: invalid to date %q: %w", to, err)
	}

	prior, err := a.store.PropertyLinesBefore(ctx, propertyID, from, unitFilter, accountFilter)
	if err != nil {
		return nil, fmt.Errorf("ledger report: load prior postings: %w", err)
	}
	period, err := a.store.PropertyLinesBetween(ctx, propertyID, from, to, unitFilter, accountFilter)
	if err != nil {
		return nil, fmt.Errorf("ledger report: load period postings: %w", err)
	}

	priorByAccount := make(map[string]decimal.Decimal)
	for _, line := range prior {
		priorByAccount[line.GLAccountID] = priorByAccount[line.GLAccountID].Add(line.Signed())
	}

	periodByAccount := make(map[string][]ledger.TransactionLine)
	for _, line := range period {
		periodByAccount[line.GLAccountID] = append(periodByAccount[line.GLAccountID], line)
	}

	accountIDs := make(map[string]bool)
	for id := range priorByAccount {
		accountIDs[id] = true
	}
	for id := range periodByAccount {
		accountIDs[id] = true
	}
	if len(accountIDs) == 0 {
		return report, nil
	}

	ids := make([]string, 0, len(accountIDs))
	for id := range accountIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	accounts, err := a.store.GLAccountsByIDs(ctx, ids)
	if err != nil {
		slog.Warn("failed to load GL accounts for ledger report", "error", err)
		accounts = map[string]ledger.GLAccount{}
	}

	for _, accountID := range ids {
		account, ok := accounts[accountID]
		if !ok {
			account = ledger.GLAccount{ID: accountID, Name: accountID}
		}

		postings := periodByAccount[accountID]
		sort.SliceStable(postings, func(i, j int) bool {
			if postings[i].Date != postings[j].Date {
				return postings[i].Date < postings[j].Date
			}
			return postings[i].CreatedAt.Before(postings[j].CreatedAt)
		})

		group := AccountGroup{
			Account: account,
			Prior:   priorByAccount[accountID],
		}

		running := group.Prior
		net := decimal.Zero
		for _, posting := range postings {
			signed := posting.Signed()
			running = running.Add(signed)
			net = net.Add(signed)
			group.Lines = append(group.Lines, Line{
				Posting: posting,
				Signed:  signed,
				Running: running,
			})
		}

		group.Net = net
		group.Ending = group.Prior.Add(net)
		report.Groups = append(report.Groups, group)
	}

	sort.SliceStable(report.Groups, func(i, j int) bool {
		a, b := report.Groups[i].Account, report.Groups[j].Account
		if a.AccountType != b.AccountType {
			return a.AccountType < b.AccountType
		}
		return a.Name < b.Name
	})

	return report, nil
}
