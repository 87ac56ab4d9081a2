package billing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// Store is the full ledger store surface the billing service depends on.
type Store interface {
	ReconcilerStore
	LinesFiltered(ctx context.Context, propertyFilter, unitFilter ledger.IDFilter) ([]ledger.TransactionLine, error)
	GLAccountsByIDs(ctx context.Context, ids []string) (map[string]ledger.GLAccount, error)
	PropertiesByIDs(ctx context.Context, ids []string) (map[string]ledger.Property, error)
	UnitsByIDs(ctx context.Context, ids []string) (map[string]ledger.Unit, error)
	VendorsByIDs(ctx context.Context, ids []string) (map[string]ledger.Vendor, error)
}

var _ Store = (*ledger.Store)(nil)

// UnpaidBillFilters restrict the unpaid-bill listing.
type UnpaidBillFilters struct {
	PropertyIDs ledger.IDFilter
	UnitIDs     ledger.IDFilter
	VendorIDs   ledger.IDFilter
	Statuses    []ledger.BillStatus
}

// UnpaidBillRow is one bill in the unpaid-bills listing, decorated with the
// display metadata the payment table needs.
type UnpaidBillRow struct {
	ID                              string
	VendorID                        *string
	PropertyID                      *string
	UnitID                          *string
	BuildiumBillID                  *int64
	Date                            string
	DueDate                         *string
	Status                          ledger.BillStatus
	Memo                            string
	ReferenceNumber                 string
	TotalAmount                     decimal.Decimal
	RemainingAmount                 decimal.Decimal
	VendorName                      string
	VendorInsuranceMissingOrExpired bool
	PropertyName                    string
	UnitLabel                       string
	OperatingBankGLAccountID        *string
	BankHasBuildiumID               bool
}

// BillForPreparation is a bill pre-validated for the check-payment form.
type BillForPreparation struct {
	ID                       string
	BuildiumBillID           *int64
	VendorName               string
	PropertyID               *string
	PropertyName             string
	OperatingBankGLAccountID *string
	RemainingAmount          decimal.Decimal
}

// Service exposes the bill settlement read surface: unpaid-bill listing,
// check-payment preparation, and explicit status reconciliation.
type Service struct {
	store      Store
	reconciler *Reconciler
	now        func() time.Time
}

// NewService creates a billing Service.
func NewService(store Store) *Service {
	return &Service{
		store:      store,
		reconciler: NewReconciler(store),
		now:        time.Now,
	}
}

// Reconciler returns the service's payment reconciler.
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// ListUnpaidBills lists bills that can still be paid, subject to the given
// filters. Metadata lookups (vendors, properties, units, bank accounts) are
// allowed to fail: the listing degrades to placeholder labels rather than
// aborting.
func (s *Service) ListUnpaidBills(ctx context.Context, filters UnpaidBillFilters) ([]UnpaidBillRow, error) {
	if filters.PropertyIDs.None() || filters.UnitIDs.None() || filters.VendorIDs.None() {
		return nil, nil
	}

	lines, err := s.store.LinesFiltered(ctx, filters.PropertyIDs, filters.UnitIDs)
	if err != nil {
		return nil, fmt.Errorf("list unpaid bills: load lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	ctxByTx := lineContexts(lines)
	txIDs := make([]string, 0, len(ctxByTx))
	for txID := range ctxByTx {
		txIDs = append(txIDs, txID)
	}
	sort.Strings(txIDs)

	bills, err := s.store.BillsByIDs(ctx, txIDs, filters.VendorIDs)
	if err != nil {
		return nil, fmt.Errorf("list unpaid bills: load bills: %w", err)
	}
	if len(bills) == 0 {
		return nil, nil
	}

	balances, err := s.reconciler.ReconcileBills(ctx, bills)
	if err != nil {
		return nil, err
	}

	meta := s.loadListingMetadata(ctx, bills, ctxByTx)

	statusAllowed := func(status ledger.BillStatus) bool {
		if len(filters.Statuses) == 0 {
			return true
		}
		for _, allowed := range filters.Statuses {
			if status == allowed {
				return true
			}
		}
		return false
	}

	var rows []UnpaidBillRow
	for _, balance := range balances {
		if !balance.Payable() || !statusAllowed(balance.EffectiveStatus) {
			continue
		}

		bill := balance.Bill
		lineCtx := ctxByTx[bill.ID]
		primaryPropertyID := lineCtx.primaryPropertyID()

		row := UnpaidBillRow{
			ID:              bill.ID,
			VendorID:        bill.VendorID,
			BuildiumBillID:  bill.BuildiumBillID,
			Date:            bill.Date,
			DueDate:         bill.DueDate,
			Status:          balance.EffectiveStatus,
			Memo:            bill.Memo,
			ReferenceNumber: bill.ReferenceNumber,
			TotalAmount:     balance.DueAmount,
			RemainingAmount: balance.Remaining,
			VendorName:      "Vendor",
		}

		if primaryPropertyID != "" {
			row.PropertyID = &primaryPropertyID
			if property, ok := meta.properties[primaryPropertyID]; ok {
				row.PropertyName = ledger.FirstNonEmpty(property.Name, "Property")
				row.OperatingBankGLAccountID = property.OperatingBankGLAccountID
			}
		}
		if lineCtx.unitID != nil {
			row.UnitID = lineCtx.unitID
			if unit, ok := meta.units[*lineCtx.unitID]; ok {
				row.UnitLabel = unit.Label()
			}
		}
		if bill.VendorID != nil {
			if vendor, ok := meta.vendors[*bill.VendorID]; ok {
				row.VendorName = vendor.Label()
				row.VendorInsuranceMissingOrExpired = vendor.InsuranceMissingOrExpired(s.now().UTC())
			}
		}
		if row.OperatingBankGLAccountID != nil {
			if account, ok := meta.bankAccounts[*row.OperatingBankGLAccountID]; ok {
				row.BankHasBuildiumID = account.BuildiumGLAccountID != nil
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// PrepareBillsForPayment resolves the given bills for the check-payment form.
// Bills that are Paid, Cancelled, or have nothing remaining are excluded.
func (s *Service) PrepareBillsForPayment(ctx context.Context, billIDs []string) ([]BillForPreparation, error) {
	if len(billIDs) == 0 {
		return nil, nil
	}

	bills, err := s.store.BillsByIDs(ctx, billIDs, nil)
	if err != nil {
		return nil, fmt.Errorf("prepare bills: load bills: %w", err)
	}
	if len(bills) == 0 {
		return nil, nil
	}

	balances, err := s.reconciler.ReconcileBills(ctx, bills)
	if err != nil {
		return nil, err
	}

	lines, err := s.store.LinesByTransactionIDs(ctx, billIDs)
	if err != nil {
		slog.Warn("failed to load bill lines for check preparation", "error", err)
	}
	ctxByTx := lineContexts(lines)

	meta := s.loadListingMetadata(ctx, bills, ctxByTx)

	var prepared []BillForPreparation
	for _, balance := range balances {
		if !balance.Payable() {
			continue
		}

		bill := balance.Bill
		row := BillForPreparation{
			ID:              bill.ID,
			BuildiumBillID:  bill.BuildiumBillID,
			VendorName:      "Vendor",
			RemainingAmount: balance.Remaining,
		}

		if primaryPropertyID := ctxByTx[bill.ID].primaryPropertyID(); primaryPropertyID != "" {
			row.PropertyID = &primaryPropertyID
			if property, ok := meta.properties[primaryPropertyID]; ok {
				row.PropertyName = ledger.FirstNonEmpty(property.Name, "Property")
				row.OperatingBankGLAccountID = property.OperatingBankGLAccountID
			}
		}
		if bill.VendorID != nil {
			if vendor, ok := meta.vendors[*bill.VendorID]; ok {
				row.VendorName = vendor.Label()
			}
		}

		prepared = append(prepared, row)
	}

	return prepared, nil
}

// ReconcileStatuses reconciles the given bills and persists any status
// corrections. It returns the reconciled balances and the number of
// corrections applied.
func (s *Service) ReconcileStatuses(ctx context.Context, billIDs []string) ([]BillBalance, int, error) {
	balances, err := s.reconciler.ReconcileBillsByID(ctx, billIDs)
	if err != nil {
		return nil, 0, err
	}

	applied, err := s.reconciler.PersistStatusCorrections(ctx, balances)
	if err != nil {
		return balances, applied, err
	}

	return balances, applied, nil
}

// lineContext is the per-bill context derived from its postings: the first
// seen unit, and per-property debit totals used to pick the primary property.
type lineContext struct {
	unitID      *string
	firstSeen   []string
	debitTotals map[string]decimal.Decimal
}

func (c lineContext) primaryPropertyID() string {
	if len(c.firstSeen) == 0 {
		return ""
	}

	// Largest debit share wins; ties and zero-debit bills fall back to the
	// first property seen on the bill's lines.
	best := ""
	bestTotal := decimal.Zero
	for _, propertyID := range c.firstSeen {
		total := c.debitTotals[propertyID]
		if best == "" || total.GreaterThan(bestTotal) {
			best = propertyID
			bestTotal = total
		}
	}
	return best
}

func lineContexts(lines []ledger.TransactionLine) map[string]*lineContext {
	byTx := make(map[string]*lineContext)
	for _, line := range lines {
		lc := byTx[line.TransactionID]
		if lc == nil {
			lc = &lineContext{debitTotals: make(map[string]decimal.Decimal)}
			byTx[line.TransactionID] = lc
		}

		if lc.unitID == nil && line.UnitID != nil {
			lc.unitID = line.UnitID
		}
		if line.PropertyID == "" {
			continue
		}
		if _, seen := lc.debitTotals[line.PropertyID]; !seen {
			lc.firstSeen = append(lc.firstSeen, line.PropertyID)
			lc.debitTotals[line.PropertyID] = decimal.Zero
		}
		if !line.PostingType.IsCredit() {
			lc.debitTotals[line.PropertyID] = lc.debitTotals[line.PropertyID].Add(line.Amount.Abs())
		}
	}
	return byTx
}

// listingMetadata bundles the display lookups for bill rows. Failed lookups
// degrade to empty maps so a broken metadata read cannot abort the listing.
type listingMetadata struct {
	vendors      map[string]ledger.Vendor
	properties   map[string]ledger.Property
	units        map[string]ledger.Unit
	bankAccounts map[string]ledger.GLAccount
}

func (s *Service) loadListingMetadata(ctx context.Context, bills []ledger.Transaction, ctxByTx map[string]*lineContext) listingMetadata {
	vendorIDs := make(map[string]bool)
	propertyIDs := make(map[string]bool)
	unitIDs := make(map[string]bool)
	for _, bill := range bills {
		if bill.VendorID != nil {
			vendorIDs[*bill.VendorID] = true
		}
		lineCtx := ctxByTx[bill.ID]
		if lineCtx == nil {
			continue
		}
		for _, propertyID := range lineCtx.firstSeen {
			propertyIDs[propertyID] = true
		}
		if lineCtx.unitID != nil {
			unitIDs[*lineCtx.unitID] = true
		}
	}

	meta := listingMetadata{
		vendors:      map[string]ledger.Vendor{},
		properties:   map[string]ledger.Property{},
		units:        map[string]ledger.Unit{},
		bankAccounts: map[string]ledger.GLAccount{},
	}

	if vendors, err := s.store.VendorsByIDs(ctx, keys(vendorIDs)); err != nil {
		slog.Warn("failed to load vendors for bill listing", "error", err)
	} else {
		meta.vendors = vendors
	}

	properties, err := s.store.PropertiesByIDs(ctx, keys(propertyIDs))
	if err != nil {
		slog.Warn("failed to load properties for bill listing", "error", err)
	} else {
		meta.properties = properties
	}

	if units, err := s.store.UnitsByIDs(ctx, keys(unitIDs)); err != nil {
		slog.Warn("failed to load units for bill listing", "error", err)
	} else {
		meta.units = units
	}

	bankGLIDs := make(map[string]bool)
	for _, property := range properties {
		if property.OperatingBankGLAccountID != nil {
			bankGLIDs[*property.OperatingBankGLAccountID] = true
		}
	}
	if accounts, err := s.store.GLAccountsByIDs(ctx, keys(bankGLIDs)); err != nil {
		slog.Warn("failed to load bank GL accounts for bill listing", "error", err)
	} else {
		meta.bankAccounts = accounts
	}

	return meta
}

func keys(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}
