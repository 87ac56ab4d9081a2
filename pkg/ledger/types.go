// Package ledger provides the domain types and SQLite-backed store for the
// property accounting ledger: transactions, postings, GL accounts and the
// supporting property/unit/vendor metadata.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of accounting event a transaction records.
type TransactionType string

const (
	TypeBill                TransactionType = "Bill"
	TypePayment             TransactionType = "Payment"
	TypeCheck               TransactionType = "Check"
	TypeCharge              TransactionType = "Charge"
	TypeCredit              TransactionType = "Credit"
	TypeGeneralJournalEntry TransactionType = "GeneralJournalEntry"
)

// PostingType is the direction of a posting within a transaction.
type PostingType string

const (
	Debit  PostingType = "Debit"
	Credit PostingType = "Credit"
)

// Signed returns the signed value of an amount for ledger display:
// positive for debits, negative for credits.
func (p PostingType) Signed(amount decimal.Decimal) decimal.Decimal {
	if strings.EqualFold(string(p), string(Credit)) {
		return amount.Neg()
	}
	return amount
}

// IsCredit reports whether the posting is a credit, case-insensitively.
func (p PostingType) IsCredit() bool {
	return strings.EqualFold(string(p), string(Credit))
}

// BillStatus is the display status label of a bill.
type BillStatus string

const (
	StatusNone          BillStatus = ""
	StatusOverdue       BillStatus = "Overdue"
	StatusDue           BillStatus = "Due"
	StatusPartiallyPaid BillStatus = "Partially paid"
	StatusPaid          BillStatus = "Paid"
	StatusCancelled     BillStatus = "Cancelled"
)

// NormalizeBillStatus maps a raw stored status value onto one of the known
// labels. Unknown values normalize to the empty status.
func NormalizeBillStatus(value string) BillStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "overdue":
		return StatusOverdue
	case "due", "pending":
		return StatusDue
	case "partiallypaid", "partially_paid", "partially paid":
		return StatusPartiallyPaid
	case "paid":
		return StatusPaid
	case "cancelled":
		return StatusCancelled
	default:
		return StatusNone
	}
}

// Transaction represents an accounting event.
type Transaction struct {
	ID                string
	Type              TransactionType
	Date              string  // YYYY-MM-DD
	DueDate           *string // YYYY-MM-DD
	PaidDate          *string // YYYY-MM-DD
	Status            BillStatus
	TotalAmount       decimal.Decimal
	Memo              string
	ReferenceNumber   string
	VendorID          *string
	BillTransactionID *string // local bill reference for Payment/Check rows
	BuildiumBillID    *int64  // external ledger system id
	MonthlyLogID      *string
	CreatedAt         time.Time
}

// TransactionLine represents one posting within a transaction.
type TransactionLine struct {
	ID            string
	TransactionID string
	GLAccountID   string
	PostingType   PostingType
	Amount        decimal.Decimal // non-negative
	PropertyID    string
	UnitID        *string
	Date          string // YYYY-MM-DD
	CreatedAt     time.Time
}

// Signed returns the line's signed value (Debit positive, Credit negative).
func (l TransactionLine) Signed() decimal.Decimal {
	return l.PostingType.Signed(l.Amount)
}

// GLAccount is a general-ledger account bucket.
type GLAccount struct {
	ID                  string
	Name                string
	AccountNumber       string
	AccountType         string
	BuildiumGLAccountID *int64
	IsBankAccount       bool
}

// Property is a managed property.
type Property struct {
	ID                       string
	Name                     string
	OperatingBankGLAccountID *string
}

// Unit is a rentable unit within a property.
type Unit struct {
	ID         string
	PropertyID string
	UnitNumber string
	UnitName   string
}

// Label returns the display label for the unit.
func (u Unit) Label() string {
	return FirstNonEmpty(u.UnitNumber, u.UnitName, "Unit")
}

// Vendor is a payee for bills.
type Vendor struct {
	ID                      string
	DisplayName             string
	CompanyName             string
	FirstName               string
	LastName                string
	InsuranceExpirationDate *string // YYYY-MM-DD
}

// Label returns the display name for the vendor.
func (v Vendor) Label() string {
	return FirstNonEmpty(
		v.DisplayName,
		v.CompanyName,
		strings.TrimSpace(v.FirstName+" "+v.LastName),
		"Vendor",
	)
}

// InsuranceMissingOrExpired reports whether the vendor has no insurance
// expiration date on file, or the date is before today (UTC, date-only).
func (v Vendor) InsuranceMissingOrExpired(today time.Time) bool {
	if v.InsuranceExpirationDate == nil || *v.InsuranceExpirationDate == "" {
		return true
	}
	exp, err := ParseDate(*v.InsuranceExpirationDate)
	if err != nil {
		return true
	}
	return exp.Before(DateOnly(today))
}

// MonthlyLog is a monthly statement bucket.
type MonthlyLog struct {
	ID          string
	UnitID      *string
	PropertyID  *string
	PeriodStart string // YYYY-MM-DD
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FirstNonEmpty returns the first candidate that is not empty after trimming
// whitespace, or "" if every candidate is empty. Callers pass candidates in
// precedence order; the order is part of the contract.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// IDFilter is a three-state id filter: a nil filter matches everything, an
// empty non-nil filter is an explicit "none" selection, and a non-empty
// filter matches only the listed ids.
type IDFilter []string

// All reports whether the filter matches everything.
func (f IDFilter) All() bool { return f == nil }

// None reports whether the filter is an explicit empty selection.
func (f IDFilter) None() bool { return f != nil && len(f) == 0 }
