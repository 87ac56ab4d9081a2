package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/buildium"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// fakeStore is an in-memory billing.Store for tests.
type fakeStore struct {
	bills            map[string]ledger.Transaction
	lines            []ledger.TransactionLine
	localPayments    map[string][]ledger.Transaction
	externalPayments map[int64][]ledger.Transaction
	accounts         map[string]ledger.GLAccount
	properties       map[string]ledger.Property
	units            map[string]ledger.Unit
	vendors          map[string]ledger.Vendor

	vendorsErr    error
	statusUpdates []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bills:            map[string]ledger.Transaction{},
		localPayments:    map[string][]ledger.Transaction{},
		externalPayments: map[int64][]ledger.Transaction{},
		accounts:         map[string]ledger.GLAccount{},
		properties:       map[string]ledger.Property{},
		units:            map[string]ledger.Unit{},
		vendors:          map[string]ledger.Vendor{},
	}
}

func (f *fakeStore) BillsByIDs(_ context.Context, ids []string, vendorFilter ledger.IDFilter) ([]ledger.Transaction, error) {
	if vendorFilter.None() {
		return nil, nil
	}
	allowedVendor := func(vendorID *string) bool {
		if vendorFilter.All() {
			return true
		}
		if vendorID == nil {
			return false
		}
		for _, id := range vendorFilter {
			if id == *vendorID {
				return true
			}
		}
		return false
	}

	var result []ledger.Transaction
	for _, id := range ids {
		bill, ok := f.bills[id]
		if ok && bill.Type == ledger.TypeBill && allowedVendor(bill.VendorID) {
			result = append(result, bill)
		}
	}
	return result, nil
}

func (f *fakeStore) LinesByTransactionIDs(_ context.Context, txIDs []string) ([]ledger.TransactionLine, error) {
	want := make(map[string]bool, len(txIDs))
	for _, id := range txIDs {
		want[id] = true
	}
	var result []ledger.TransactionLine
	for _, line := range f.lines {
		if want[line.TransactionID] {
			result = append(result, line)
		}
	}
	return result, nil
}

func (f *fakeStore) PaymentsByBillIDs(_ context.Context, billIDs []string) (map[string][]ledger.Transaction, error) {
	result := map[string][]ledger.Transaction{}
	for _, id := range billIDs {
		if payments, ok := f.localPayments[id]; ok {
			result[id] = payments
		}
	}
	return result, nil
}

func (f *fakeStore) PaymentsByExternalBillIDs(_ context.Context, externalIDs []int64) (map[int64][]ledger.Transaction, error) {
	result := map[int64][]ledger.Transaction{}
	for _, id := range externalIDs {
		if payments, ok := f.externalPayments[id]; ok {
			result[id] = payments
		}
	}
	return result, nil
}

func (f *fakeStore) UpdateBillStatus(_ context.Context, id string, from, to ledger.BillStatus) (bool, error) {
	bill, ok := f.bills[id]
	if !ok || bill.Status != from {
		return false, nil
	}
	bill.Status = to
	f.bills[id] = bill
	f.statusUpdates = append(f.statusUpdates, id)
	return true, nil
}

func (f *fakeStore) LinesFiltered(_ context.Context, propertyFilter, unitFilter ledger.IDFilter) ([]ledger.TransactionLine, error) {
	if propertyFilter.None() || unitFilter.None() {
		return nil, nil
	}
	inFilter := func(filter ledger.IDFilter, id string) bool {
		if filter.All() {
			return true
		}
		for _, allowed := range filter {
			if allowed == id {
				return true
			}
		}
		return false
	}

	var result []ledger.TransactionLine
	for _, line := range f.lines {
		if !inFilter(propertyFilter, line.PropertyID) {
			continue
		}
		if !unitFilter.All() {
			if line.UnitID == nil || !inFilter(unitFilter, *line.UnitID) {
				continue
			}
		}
		result = append(result, line)
	}
	return result, nil
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

func (f *fakeStore) PropertiesByIDs(_ context.Context, ids []string) (map[string]ledger.Property, error) {
	result := map[string]ledger.Property{}
	for _, id := range ids {
		if property, ok := f.properties[id]; ok {
			result[id] = property
		}
	}
	return result, nil
}

func (f *fakeStore) UnitsByIDs(_ context.Context, ids []string) (map[string]ledger.Unit, error) {
	result := map[string]ledger.Unit{}
	for _, id := range ids {
		if unit, ok := f.units[id]; ok {
			result[id] = unit
		}
	}
	return result, nil
}

func (f *fakeStore) VendorsByIDs(_ context.Context, ids []string) (map[string]ledger.Vendor, error) {
	if f.vendorsErr != nil {
		return nil, f.vendorsErr
	}
	result := map[string]ledger.Vendor{}
	for _, id := range ids {
		if vendor, ok := f.vendors[id]; ok {
			result[id] = vendor
		}
	}
	return result, nil
}

var _ Store = (*fakeStore)(nil)

// fakeGateway records bill payment submissions.
type fakeGateway struct {
	calls   []int64
	failFor map[int64]error
}

func (g *fakeGateway) CreateBillPayment(_ context.Context, billID int64, payment buildium.BillPaymentRequest) (*buildium.BillPaymentResponse, error) {
	g.calls = append(g.calls, billID)
	if err, ok := g.failFor[billID]; ok {
		return nil, err
	}
	return &buildium.BillPaymentResponse{ID: 1, BillID: billID, Amount: payment.Amount}, nil
}

var _ Gateway = (*fakeGateway)(nil)

func strptr(s string) *string { return &s }

func int64ptr(v int64) *int64 { return &v }

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

// addBill seeds a bill with a single debit line against the given property.
func (f *fakeStore) addBill(id string, amount decimal.Decimal, status ledger.BillStatus, dueDate *string, externalID *int64) {
	f.bills[id] = ledger.Transaction{
		ID:             id,
		Type:           ledger.TypeBill,
		Date:           "2025-06-01",
		DueDate:        dueDate,
		Status:         status,
		TotalAmount:    amount,
		BuildiumBillID: externalID,
	}
}
