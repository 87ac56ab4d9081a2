// Package db provides SQLite database management for the property ledger store.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- General ledger accounts
CREATE TABLE IF NOT EXISTS gl_accounts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    account_number TEXT,
    account_type TEXT NOT NULL,            -- asset/liability/income/expense/equity
    buildium_gl_account_id INTEGER,        -- Buildium bank account ID (nullable)
    is_bank_account INTEGER NOT NULL DEFAULT 0
);

-- Properties
CREATE TABLE IF NOT EXISTS properties (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    operating_bank_gl_account_id TEXT REFERENCES gl_accounts(id)
);

-- Units
CREATE TABLE IF NOT EXISTS units (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL REFERENCES properties(id),
    unit_number TEXT,
    unit_name TEXT
);

-- Vendors
CREATE TABLE IF NOT EXISTS vendors (
    id TEXT PRIMARY KEY,
    display_name TEXT,
    company_name TEXT,
    first_name TEXT,
    last_name TEXT,
    insurance_expiration_date TEXT         -- YYYY-MM-DD
);

-- Monthly statement buckets
CREATE TABLE IF NOT EXISTS monthly_logs (
    id TEXT PRIMARY KEY,
    unit_id TEXT REFERENCES units(id),
    property_id TEXT REFERENCES properties(id),
    period_start TEXT NOT NULL             -- YYYY-MM-DD
);

-- Accounting transactions (Bill, Payment, Check, Charge, Credit, GeneralJournalEntry)
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    transaction_type TEXT NOT NULL,
    date TEXT NOT NULL,                    -- YYYY-MM-DD
    due_date TEXT,                         -- YYYY-MM-DD
    paid_date TEXT,                        -- YYYY-MM-DD
    status TEXT NOT NULL DEFAULT '',       -- stored bill status label
    total_amount TEXT NOT NULL DEFAULT '0',-- decimal string
    memo TEXT,
    reference_number TEXT,
    vendor_id TEXT REFERENCES vendors(id),
    bill_transaction_id TEXT REFERENCES transactions(id),
    buildium_bill_id INTEGER,
    monthly_log_id TEXT REFERENCES monthly_logs(id),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_type
    ON transactions(transaction_type);

CREATE INDEX IF NOT EXISTS idx_transactions_bill_ref
    ON transactions(bill_transaction_id);

CREATE INDEX IF NOT EXISTS idx_transactions_buildium_bill
    ON transactions(buildium_bill_id);

CREATE INDEX IF NOT EXISTS idx_transactions_monthly_log
    ON transactions(monthly_log_id);

-- Postings: one signed entry against a GL account within a transaction
CREATE TABLE IF NOT EXISTS transaction_lines (
    id TEXT PRIMARY KEY,
    transaction_id TEXT NOT NULL REFERENCES transactions(id),
    gl_account_id TEXT NOT NULL REFERENCES gl_accounts(id),
    posting_type TEXT NOT NULL,            -- 'Debit' or 'Credit'
    amount TEXT NOT NULL,                  -- non-negative decimal string
    property_id TEXT REFERENCES properties(id),
    unit_id TEXT REFERENCES units(id),
    date TEXT NOT NULL,                    -- YYYY-MM-DD
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_lines_transaction
    ON transaction_lines(transaction_id);

CREATE INDEX IF NOT EXISTS idx_lines_property_date
    ON transaction_lines(property_id, date);

CREATE INDEX IF NOT EXISTS idx_lines_account
    ON transaction_lines(gl_account_id);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
