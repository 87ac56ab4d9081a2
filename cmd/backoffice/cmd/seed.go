package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/parkstreet-pm/backoffice/pkg/config"
	"github.com/parkstreet-pm/backoffice/pkg/db"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a demo dataset",
	Long: `Populate the ledger store with a small demo dataset for local
development: one property with two units, GL accounts, a vendor, open and
partially paid bills, rent charges and a monthly log.

Example:
  backoffice seed`,
	Run: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"database", "path"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	conn, err := db.Open(cfg.Database.Path)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	store := ledger.NewStore(conn)
	exitOnError(seedDemoData(cmd.Context(), store), "failed to seed demo data")

	fmt.Println("Demo dataset created")
	slog.Info("seed complete", "db_path", cfg.Database.Path)
}

func seedDemoData(ctx context.Context, store *ledger.Store) error {
	today := time.Now().UTC()
	date := func(daysFromNow int) string {
		return today.AddDate(0, 0, daysFromNow).Format("2006-01-02")
	}
	strptr := func(s string) *string { return &s }

	operatingID := uuid.NewString()
	expenseID := uuid.NewString()
	incomeID := uuid.NewString()
	buildiumBank := int64(9001)
	accounts := []ledger.GLAccount{
		{ID: operatingID, Name: "Operating Bank", AccountNumber: "1010", AccountType: "asset", BuildiumGLAccountID: &buildiumBank, IsBankAccount: true},
		{ID: expenseID, Name: "Repairs and Maintenance", AccountNumber: "5200", AccountType: "expense"},
		{ID: incomeID, Name: "Rental Income", AccountNumber: "4000", AccountType: "income"},
	}
	for _, account := range accounts {
		if err := store.InsertGLAccount(ctx, account); err != nil {
			return err
		}
	}

	propertyID := uuid.NewString()
	if err := store.InsertProperty(ctx, ledger.Property{
		ID:                       propertyID,
		Name:                     "Park Street Apartments",
		OperatingBankGLAccountID: &operatingID,
	}); err != nil {
		return err
	}

	unitIDs := []string{uuid.NewString(), uuid.NewString()}
	for i, unitID := range unitIDs {
		if err := store.InsertUnit(ctx, ledger.Unit{
			ID:         unitID,
			PropertyID: propertyID,
			UnitNumber: fmt.Sprintf("%d0%d", i+1, i+1),
		}); err != nil {
			return err
		}
	}

	vendorID := uuid.NewString()
	if err := store.InsertVendor(ctx, ledger.Vendor{
		ID:                      vendorID,
		CompanyName:             "Hill Plumbing Co",
		InsuranceExpirationDate: strptr(date(120)),
	}); err != nil {
		return err
	}

	// Overdue bill, no payments.
	overdueBillID := uuid.NewString()
	overdueExternal := int64(50001)
	if err := seedBill(ctx, store, seedBillParams{
		id:         overdueBillID,
		externalID: &overdueExternal,
		vendorID:   vendorID,
		propertyID: propertyID,
		unitID:     unitIDs[0],
		accountID:  expenseID,
		date:       date(-20),
		dueDate:    date(-5),
		amount:     decimal.NewFromInt(500),
	}); err != nil {
		return err
	}

	// Bill with a partial payment.
	partialBillID := uuid.NewString()
	partialExternal := int64(50002)
	if err := seedBill(ctx, store, seedBillParams{
		id:         partialBillID,
		externalID: &partialExternal,
		vendorID:   vendorID,
		propertyID: propertyID,
		unitID:     unitIDs[1],
		accountID:  expenseID,
		date:       date(-10),
		dueDate:    date(10),
		amount:     decimal.NewFromInt(800),
	}); err != nil {
		return err
	}
	if err := store.InsertTransaction(ctx, ledger.Transaction{
		ID:                uuid.NewString(),
		Type:              ledger.TypeCheck,
		Date:              date(-2),
		TotalAmount:       decimal.NewFromInt(300),
		ReferenceNumber:   "1040",
		BillTransactionID: &partialBillID,
		CreatedAt:         today,
	}); err != nil {
		return err
	}

	// Monthly log with a rent charge and payment for the first unit.
	logID := uuid.NewString()
	if err := store.InsertMonthlyLog(ctx, ledger.MonthlyLog{
		ID:          logID,
		UnitID:      &unitIDs[0],
		PropertyID:  &propertyID,
		PeriodStart: today.Format("2006-01") + "-01",
	}); err != nil {
		return err
	}

	chargeID := uuid.NewString()
	if err := store.InsertTransaction(ctx, ledger.Transaction{
		ID:           chargeID,
		Type:         ledger.TypeCharge,
		Date:         date(-15),
		TotalAmount:  decimal.NewFromInt(1900),
		Memo:         "Monthly rent",
		MonthlyLogID: &logID,
		CreatedAt:    today,
	}); err != nil {
		return err
	}
	if err := store.InsertLine(ctx, ledger.TransactionLine{
		ID:            uuid.NewString(),
		TransactionID: chargeID,
		GLAccountID:   incomeID,
		PostingType:   ledger.Credit,
		Amount:        decimal.NewFromInt(1900),
		PropertyID:    propertyID,
		UnitID:        &unitIDs[0],
		Date:          date(-15),
		CreatedAt:     today,
	}); err != nil {
		return err
	}

	rentPaymentID := uuid.NewString()
	if err := store.InsertTransaction(ctx, ledger.Transaction{
		ID:           rentPaymentID,
		Type:         ledger.TypePayment,
		Date:         date(-12),
		TotalAmount:  decimal.NewFromInt(1900),
		Memo:         "Rent payment",
		MonthlyLogID: &logID,
		CreatedAt:    today,
	}); err != nil {
		return err
	}
	return store.InsertLine(ctx, ledger.TransactionLine{
		ID:            uuid.NewString(),
		TransactionID: rentPaymentID,
		GLAccountID:   operatingID,
		PostingType:   ledger.Debit,
		Amount:        decimal.NewFromInt(1900),
		PropertyID:    propertyID,
		UnitID:        &unitIDs[0],
		Date:          date(-12),
		CreatedAt:     today,
	})
}

type seedBillParams struct {
	id         string
	externalID *int64
	vendorID   string
	propertyID string
	unitID     string
	accountID  string
	date       string
	dueDate    string
	amount     decimal.Decimal
}

func seedBill(ctx context.Context, store *ledger.Store, p seedBillParams) error {
	dueDate := p.dueDate
	if err := store.InsertTransaction(ctx, ledger.Transaction{
		ID:             p.id,
		Type:           ledger.TypeBill,
		Date:           p.date,
		DueDate:        &dueDate,
		Status:         ledger.StatusDue,
		TotalAmount:    p.amount,
		VendorID:       &p.vendorID,
		BuildiumBillID: p.externalID,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		return err
	}
	return store.InsertLine(ctx, ledger.TransactionLine{
		ID:            uuid.NewString(),
		TransactionID: p.id,
		GLAccountID:   p.accountID,
		PostingType:   ledger.Debit,
		Amount:        p.amount,
		PropertyID:    p.propertyID,
		UnitID:        &p.unitID,
		Date:          p.date,
		CreatedAt:     time.Now().UTC(),
	})
}
