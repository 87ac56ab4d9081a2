package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// newListingStore seeds a property with a bank-mapped operating account, a
// vendor and two bills: one open, one fully paid.
func newListingStore() *fakeStore {
	store := newFakeStore()

	store.accounts["gl-bank"] = ledger.GLAccount{
		ID:                  "gl-bank",
		Name:                "Operating Bank",
		BuildiumGLAccountID: int64ptr(9001),
		IsBankAccount:       true,
	}
	store.properties["prop-1"] = ledger.Property{
		ID:                       "prop-1",
		Name:                     "Park Street Apartments",
		OperatingBankGLAccountID: strptr("gl-bank"),
	}
	store.units["unit-1"] = ledger.Unit{ID: "unit-1", PropertyID: "prop-1", UnitNumber: "101"}
	store.vendors["vend-1"] = ledger.Vendor{
		ID:                      "vend-1",
		CompanyName:             "Hill Plumbing Co",
		InsuranceExpirationDate: strptr("2030-01-01"),
	}

	openBill := ledger.Transaction{
		ID: "bill-open", Type: ledger.TypeBill, Date: "2025-06-01",
		DueDate: strptr("2030-06-20"), Status: ledger.StatusDue,
		TotalAmount: dec("450"), VendorID: strptr("vend-1"),
		BuildiumBillID: int64ptr(7001),
	}
	paidBill := ledger.Transaction{
		ID: "bill-paid", Type: ledger.TypeBill, Date: "2025-06-01",
		DueDate: strptr("2030-06-20"), Status: ledger.StatusDue,
		TotalAmount: dec("100"), VendorID: strptr("vend-1"),
	}
	store.bills[openBill.ID] = openBill
	store.bills[paidBill.ID] = paidBill
	store.localPayments["bill-paid"] = []ledger.Transaction{
		{ID: "pay-1", TotalAmount: dec("100")},
	}

	store.lines = []ledger.TransactionLine{
		{ID: "l1", TransactionID: "bill-open", PostingType: ledger.Debit, Amount: dec("450"), PropertyID: "prop-1", UnitID: strptr("unit-1"), Date: "2025-06-01"},
		{ID: "l2", TransactionID: "bill-paid", PostingType: ledger.Debit, Amount: dec("100"), PropertyID: "prop-1", Date: "2025-06-01"},
	}

	return store
}

func TestListUnpaidBills(t *testing.T) {
	service := NewService(newListingStore())

	rows, err := service.ListUnpaidBills(context.Background(), UnpaidBillFilters{})
	if err != nil {
		t.Fatalf("ListUnpaidBills: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 unpaid bill, got %d", len(rows))
	}

	row := rows[0]
	if row.ID != "bill-open" {
		t.Errorf("id = %q, expected bill-open (paid bill must be excluded)", row.ID)
	}
	if row.VendorName != "Hill Plumbing Co" {
		t.Errorf("vendor name = %q, expected company name", row.VendorName)
	}
	if row.VendorInsuranceMissingOrExpired {
		t.Error("vendor insurance valid until 2030, must not be flagged")
	}
	if row.PropertyName != "Park Street Apartments" {
		t.Errorf("property name = %q", row.PropertyName)
	}
	if row.UnitLabel != "101" {
		t.Errorf("unit label = %q, expected 101", row.UnitLabel)
	}
	if row.OperatingBankGLAccountID == nil || *row.OperatingBankGLAccountID != "gl-bank" {
		t.Errorf("operating bank = %v, expected gl-bank", row.OperatingBankGLAccountID)
	}
	if !row.BankHasBuildiumID {
		t.Error("bank account has a Buildium id, flag must be set")
	}
	if !row.RemainingAmount.Equal(dec("450")) {
		t.Errorf("remaining = %s, expected 450", row.RemainingAmount)
	}
}

func TestListUnpaidBillsExplicitEmptySelection(t *testing.T) {
	service := NewService(newListingStore())

	rows, err := service.ListUnpaidBills(context.Background(), UnpaidBillFilters{
		PropertyIDs: ledger.IDFilter{},
	})
	if err != nil {
		t.Fatalf("ListUnpaidBills: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("explicit empty property selection returned %d rows", len(rows))
	}
}

func TestListUnpaidBillsVendorFilter(t *testing.T) {
	service := NewService(newListingStore())

	rows, err := service.ListUnpaidBills(context.Background(), UnpaidBillFilters{
		VendorIDs: ledger.IDFilter{"vend-other"},
	})
	if err != nil {
		t.Fatalf("ListUnpaidBills: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("vendor filter returned %d rows, expected 0", len(rows))
	}
}

func TestListUnpaidBillsVendorLookupFailureDegrades(t *testing.T) {
	store := newListingStore()
	store.vendorsErr = errors.New("connection reset")
	service := NewService(store)

	rows, err := service.ListUnpaidBills(context.Background(), UnpaidBillFilters{})
	if err != nil {
		t.Fatalf("ListUnpaidBills must not fail on a vendor lookup error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].VendorName != "Vendor" {
		t.Errorf("vendor name = %q, expected placeholder", rows[0].VendorName)
	}
}

func TestListUnpaidBillsFlagsMissingInsurance(t *testing.T) {
	store := newListingStore()
	vendor := store.vendors["vend-1"]
	vendor.InsuranceExpirationDate = strptr("2020-01-01")
	store.vendors["vend-1"] = vendor
	service := NewService(store)

	rows, err := service.ListUnpaidBills(context.Background(), UnpaidBillFilters{})
	if err != nil {
		t.Fatalf("ListUnpaidBills: %v", err)
	}
	if len(rows) != 1 || !rows[0].VendorInsuranceMissingOrExpired {
		t.Error("expired insurance must be flagged")
	}
}

func TestPrimaryPropertyByLargestDebitShare(t *testing.T) {
	store := newListingStore()
	store.properties["prop-2"] = ledger.Property{ID: "prop-2", Name: "Hill Street Duplex"}

	// Split the open bill across two properties; prop-2 carries more debit.
	store.lines = []ledger.TransactionLine{
		{ID: "l1", TransactionID: "bill-open", PostingType: ledger.Debit, Amount: dec("150"), PropertyID: "prop-1", Date: "2025-06-01"},
		{ID: "l2", TransactionID: "bill-open", PostingType: ledger.Debit, Amount: dec("300"), PropertyID: "prop-2", Date: "2025-06-01"},
	}
	service := NewService(store)

	rows, err := service.ListUnpaidBills(context.Background(), UnpaidBillFilters{})
	if err != nil {
		t.Fatalf("ListUnpaidBills: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].PropertyID == nil || *rows[0].PropertyID != "prop-2" {
		t.Errorf("primary property = %v, expected prop-2 (largest debit share)", rows[0].PropertyID)
	}
	if rows[0].PropertyName != "Hill Street Duplex" {
		t.Errorf("property name = %q", rows[0].PropertyName)
	}
}

func TestVendorLabelFallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		vendor   ledger.Vendor
		expected string
	}{
		{"display name first", ledger.Vendor{DisplayName: "HPC", CompanyName: "Hill Plumbing Co"}, "HPC"},
		{"company name second", ledger.Vendor{CompanyName: "Hill Plumbing Co", FirstName: "Pat"}, "Hill Plumbing Co"},
		{"person name third", ledger.Vendor{FirstName: "Pat", LastName: "Hill"}, "Pat Hill"},
		{"first name only", ledger.Vendor{FirstName: "Pat"}, "Pat"},
		{"placeholder last", ledger.Vendor{}, "Vendor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vendor.Label(); got != tt.expected {
				t.Errorf("Label() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestPrepareBillsForPayment(t *testing.T) {
	service := NewService(newListingStore())

	prepared, err := service.PrepareBillsForPayment(context.Background(), []string{"bill-open", "bill-paid", "missing"})
	if err != nil {
		t.Fatalf("PrepareBillsForPayment: %v", err)
	}

	if len(prepared) != 1 {
		t.Fatalf("expected 1 prepared bill, got %d", len(prepared))
	}
	row := prepared[0]
	if row.ID != "bill-open" {
		t.Errorf("id = %q, expected bill-open", row.ID)
	}
	if row.BuildiumBillID == nil || *row.BuildiumBillID != 7001 {
		t.Errorf("buildium bill id = %v, expected 7001", row.BuildiumBillID)
	}
	if row.OperatingBankGLAccountID == nil || *row.OperatingBankGLAccountID != "gl-bank" {
		t.Errorf("operating bank = %v, expected gl-bank", row.OperatingBankGLAccountID)
	}
	if !row.RemainingAmount.Equal(dec("450")) {
		t.Errorf("remaining = %s, expected 450", row.RemainingAmount)
	}
}

func TestReconcileStatusesCommand(t *testing.T) {
	store := newListingStore()
	overdue := ledger.Transaction{
		ID: "bill-late", Type: ledger.TypeBill, Date: "2025-01-01",
		DueDate: strptr("2025-01-15"), Status: ledger.StatusDue,
		TotalAmount: dec("200"),
	}
	store.bills[overdue.ID] = overdue

	service := NewService(store)
	service.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }
	service.reconciler.now = service.now

	balances, corrected, err := service.ReconcileStatuses(context.Background(), []string{"bill-late"})
	if err != nil {
		t.Fatalf("ReconcileStatuses: %v", err)
	}
	if len(balances) != 1 || balances[0].EffectiveStatus != ledger.StatusOverdue {
		t.Fatalf("unexpected balances: %+v", balances)
	}
	if corrected != 1 {
		t.Errorf("corrected = %d, expected 1", corrected)
	}
	if got := store.bills["bill-late"].Status; got != ledger.StatusOverdue {
		t.Errorf("stored status = %q, expected Overdue", got)
	}
}
