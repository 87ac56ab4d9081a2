package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/buildium"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// amountEpsilon absorbs float rounding when comparing a requested payment
// against a bill's remaining balance.
var amountEpsilon = decimal.NewFromFloat(0.0001)

// Gateway is the external payment gateway check payments are submitted to.
type Gateway interface {
	CreateBillPayment(ctx context.Context, billID int64, payment buildium.BillPaymentRequest) (*buildium.BillPaymentResponse, error)
}

var _ Gateway = (*buildium.Client)(nil)

// CheckPaymentItem is one proposed check payment in a batch.
type CheckPaymentItem struct {
	BillID          string
	Amount          decimal.Decimal
	PayDate         string // YYYY-MM-DD
	BankGLAccountID string
	CheckNumber     string
	Memo            string
}

// CheckPaymentResult is the outcome for one requested bill id. Every input
// item produces exactly one result; Error is empty on success.
type CheckPaymentResult struct {
	BillID  string
	Success bool
	Error   string
}

// CheckRunner validates and submits batches of check payments. Items are
// processed independently: partial success is expected and normal.
type CheckRunner struct {
	store      Store
	gateway    Gateway
	reconciler *Reconciler
}

// NewCheckRunner creates a CheckRunner.
func NewCheckRunner(store Store, gateway Gateway) *CheckRunner {
	return &CheckRunner{
		store:      store,
		gateway:    gateway,
		reconciler: NewReconciler(store),
	}
}

// SubmitCheckPayments validates each item in order and submits the valid ones
// to the gateway one at a time. Results list the rejected items first, then
// the gateway outcomes, each group in input order. A gateway failure for one
// item does not abort the remaining items, and no rejected item ever reaches
// the gateway.
func (r *CheckRunner) SubmitCheckPayments(ctx context.Context, items []CheckPaymentItem) ([]CheckPaymentResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	billIDs := make([]string, 0, len(items))
	for _, item := range items {
		billIDs = append(billIDs, item.BillID)
	}

	balances, err := r.reconciler.ReconcileBillsByID(ctx, billIDs)
	if err != nil {
		return nil, err
	}
	balanceByID := make(map[string]BillBalance, len(balances))
	for _, balance := range balances {
		balanceByID[balance.Bill.ID] = balance
	}

	bankAccounts := r.loadBankAccounts(ctx, items)

	var rejected []CheckPaymentResult
	var accepted []CheckPaymentItem
	acceptedBills := make(map[string]BillBalance)
	for _, item := range items {
		balance, ok := balanceByID[item.BillID]
		if msg := r.validateItem(item, balance, ok, bankAccounts); msg != "" {
			rejected = append(rejected, CheckPaymentResult{BillID: item.BillID, Error: msg})
			continue
		}
		accepted = append(accepted, item)
		acceptedBills[item.BillID] = balance
	}

	results := rejected
	for _, item := range accepted {
		balance := acceptedBills[item.BillID]
		account := bankAccounts[item.BankGLAccountID]

		payment := buildium.BillPaymentRequest{
			BankAccountID:   *account.BuildiumGLAccountID,
			Amount:          item.Amount.InexactFloat64(),
			Date:            item.PayDate,
			ReferenceNumber: item.CheckNumber,
			Memo:            item.Memo,
		}

		_, err := r.gateway.CreateBillPayment(ctx, *balance.Bill.BuildiumBillID, payment)
		if err != nil {
			slog.Warn("check payment submission failed",
				"bill_id", item.BillID,
				"buildium_bill_id", *balance.Bill.BuildiumBillID,
				"error", err)
			results = append(results, CheckPaymentResult{BillID: item.BillID, Error: gatewayErrorMessage(err)})
			continue
		}

		slog.Info("check payment submitted",
			"bill_id", item.BillID,
			"buildium_bill_id", *balance.Bill.BuildiumBillID,
			"amount", item.Amount.String())
		results = append(results, CheckPaymentResult{BillID: item.BillID, Success: true})
	}

	return results, nil
}

// validateItem runs the per-item checks in order and returns the first
// failure's message, or "" if the item is acceptable.
func (r *CheckRunner) validateItem(item CheckPaymentItem, balance BillBalance, found bool, bankAccounts map[string]ledger.GLAccount) string {
	if !found || balance.EffectiveStatus == ledger.StatusCancelled {
		return "Bill is not available for payment"
	}
	if balance.Remaining.LessThanOrEqual(decimal.Zero) {
		return "Bill has no remaining balance"
	}
	if item.Amount.LessThanOrEqual(decimal.Zero) {
		return "Payment amount must be greater than zero"
	}
	if item.Amount.GreaterThan(balance.Remaining.Add(amountEpsilon)) {
		return "Payment amount exceeds remaining balance"
	}
	if balance.Bill.BuildiumBillID == nil {
		return "Bill is not linked to Buildium"
	}
	if item.BankGLAccountID == "" {
		return "Missing bank account for payment"
	}
	account, ok := bankAccounts[item.BankGLAccountID]
	if !ok || account.BuildiumGLAccountID == nil {
		return "Selected bank account is missing a Buildium ID"
	}
	if _, err := ledger.ParseDate(item.PayDate); err != nil {
		return "Invalid payment date"
	}
	return ""
}

// loadBankAccounts looks up the bank GL accounts named in the batch. A failed
// lookup degrades to an empty map, which rejects the affected items with the
// missing-mapping message instead of aborting the batch.
func (r *CheckRunner) loadBankAccounts(ctx context.Context, items []CheckPaymentItem) map[string]ledger.GLAccount {
	idSet := make(map[string]bool)
	for _, item := range items {
		if item.BankGLAccountID != "" {
			idSet[item.BankGLAccountID] = true
		}
	}
	if len(idSet) == 0 {
		return map[string]ledger.GLAccount{}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	accounts, err := r.store.GLAccountsByIDs(ctx, ids)
	if err != nil {
		slog.Warn("failed to load bank GL accounts for check batch", "error", err)
		return map[string]ledger.GLAccount{}
	}
	return accounts
}

// gatewayErrorMessage extracts a human-readable message from a gateway error.
func gatewayErrorMessage(err error) string {
	var apiErr *buildium.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("Payment submission failed: %v", err)
}
