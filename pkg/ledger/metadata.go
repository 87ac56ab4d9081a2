package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// GLAccountsByIDs retrieves GL accounts keyed by id.
func (s *Store) GLAccountsByIDs(ctx context.Context, ids []string) (map[string]GLAccount, error) {
	accounts := make(map[string]GLAccount)
	if len(ids) == 0 {
		return accounts, nil
	}

	query := fmt.Sprintf(`
		SELECT id, name, account_number, account_type, buildium_gl_account_id, is_bank_account
		FROM gl_accounts WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := s.conn.GetDB().QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query GL accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var account GLAccount
		var accountNumber sql.NullString
		var buildiumID sql.NullInt64
		var isBank int

		if err := rows.Scan(&account.ID, &account.Name, &accountNumber, &account.AccountType, &buildiumID, &isBank); err != nil {
			return nil, fmt.Errorf("failed to scan GL account: %w", err)
		}

		if accountNumber.Valid {
			account.AccountNumber = accountNumber.String
		}
		if buildiumID.Valid {
			account.BuildiumGLAccountID = &buildiumID.Int64
		}
		account.IsBankAccount = isBank != 0

		accounts[account.ID] = account
	}

	return accounts, rows.Err()
}

// PropertiesByIDs retrieves properties keyed by id.
func (s *Store) PropertiesByIDs(ctx context.Context, ids []string) (map[string]Property, error) {
	properties := make(map[string]Property)
	if len(ids) == 0 {
		return properties, nil
	}

	query := fmt.Sprintf(`
		SELECT id, name, operating_bank_gl_account_id
		FROM properties WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := s.conn.GetDB().QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var property Property
		var bankGLID sql.NullString

		if err := rows.Scan(&property.ID, &property.Name, &bankGLID); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		if bankGLID.Valid && bankGLID.String != "" {
			property.OperatingBankGLAccountID = &bankGLID.String
		}

		properties[property.ID] = property
	}

	return properties, rows.Err()
}

// UnitsByIDs retrieves units keyed by id.
func (s *Store) UnitsByIDs(ctx context.Context, ids []string) (map[string]Unit, error) {
	units := make(map[string]Unit)
	if len(ids) == 0 {
		return units, nil
	}

	query := fmt.Sprintf(`
		SELECT id, property_id, unit_number, unit_name
		FROM units WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := s.conn.GetDB().QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var unit Unit
		var number, name sql.NullString

		if err := rows.Scan(&unit.ID, &unit.PropertyID, &number, &name); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		if number.Valid {
			unit.UnitNumber = number.String
		}
		if name.Valid {
			unit.UnitName = name.String
		}

		units[unit.ID] = unit
	}

	return units, rows.Err()
}

// VendorsByIDs retrieves vendors keyed by id.
func (s *Store) VendorsByIDs(ctx context.Context, ids []string) (map[string]Vendor, error) {
	vendors := make(map[string]Vendor)
	if len(ids) == 0 {
		return vendors, nil
	}

	query := fmt.Sprintf(`
		SELECT id, display_name, company_name, first_name, last_name, insurance_expiration_date
		FROM vendors WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := s.conn.GetDB().QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vendor Vendor
		var display, company, first, last, insurance sql.NullString

		if err := rows.Scan(&vendor.ID, &display, &company, &first, &last, &insurance); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		if display.Valid {
			vendor.DisplayName = display.String
		}
		if company.Valid {
			vendor.CompanyName = company.String
		}
		if first.Valid {
			vendor.FirstName = first.String
		}
		if last.Valid {
			vendor.LastName = last.String
		}
		if insurance.Valid && insurance.String != "" {
			vendor.InsuranceExpirationDate = &insurance.String
		}

		vendors[vendor.ID] = vendor
	}

	return vendors, rows.Err()
}

// InsertGLAccount inserts a GL account row.
func (s *Store) InsertGLAccount(ctx context.Context, account GLAccount) error {
	query := `
		INSERT INTO gl_accounts (id, name, account_number, account_type, buildium_gl_account_id, is_bank_account)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	isBank := 0
	if account.IsBankAccount {
		isBank = 1
	}
	_, err := s.conn.GetDB().ExecContext(ctx, query,
		account.ID, account.Name, account.AccountNumber, account.AccountType,
		nullableInt64(account.BuildiumGLAccountID), isBank)
	if err != nil {
		return fmt.Errorf("failed to insert GL account: %w", err)
	}
	return nil
}

// InsertProperty inserts a property row.
func (s *Store) InsertProperty(ctx context.Context, property Property) error {
	query := `INSERT INTO properties (id, name, operating_bank_gl_account_id) VALUES (?, ?, ?)`

	_, err := s.conn.GetDB().ExecContext(ctx, query,
		property.ID, property.Name, nullableString(property.OperatingBankGLAccountID))
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// InsertUnit inserts a unit row.
func (s *Store) InsertUnit(ctx context.Context, unit Unit) error {
	query := `INSERT INTO units (id, property_id, unit_number, unit_name) VALUES (?, ?, ?, ?)`

	_, err := s.conn.GetDB().ExecContext(ctx, query, unit.ID, unit.PropertyID, unit.UnitNumber, unit.UnitName)
	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

// InsertVendor inserts a vendor row.
func (s *Store) InsertVendor(ctx context.Context, vendor Vendor) error {
	query := `
		INSERT INTO vendors (id, display_name, company_name, first_name, last_name, insurance_expiration_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.GetDB().ExecContext(ctx, query,
		vendor.ID, vendor.DisplayName, vendor.CompanyName, vendor.FirstName, vendor.LastName,
		nullableString(vendor.InsuranceExpirationDate))
	if err != nil {
		return fmt.Errorf("failed to insert vendor: %w", err)
	}
	return nil
}
