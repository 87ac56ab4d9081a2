package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

const lineColumns = `id, transaction_id, gl_account_id, posting_type, amount,
	property_id, unit_id, date, created_at`

// InsertLine inserts a posting row.
func (s *Store) InsertLine(ctx context.Context, line TransactionLine) error {
	query := `
		INSERT INTO transaction_lines (id, transaction_id, gl_account_id, posting_type,
			amount, property_id, unit_id, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var propertyID interface{}
	if line.PropertyID != "" {
		propertyID = line.PropertyID
	}

	_, err := s.conn.GetDB().ExecContext(ctx, query,
		line.ID,
		line.TransactionID,
		line.GLAccountID,
		string(line.PostingType),
		line.Amount.String(),
		propertyID,
		nullableString(line.UnitID),
		line.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction line: %w", err)
	}

	return nil
}

// LinesByTransactionIDs retrieves all postings for the given transactions.
func (s *Store) LinesByTransactionIDs(ctx context.Context, txIDs []string) ([]TransactionLine, error) {
	if len(txIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transaction_lines
		WHERE transaction_id IN (%s)
	`, lineColumns, placeholders(len(txIDs)))

	rows, err := s.conn.GetDB().QueryContext(ctx, query, stringArgs(txIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines by transaction: %w", err)
	}
	defer rows.Close()

	return collectLines(rows)
}

// LinesFiltered retrieves postings restricted by property and unit filters.
// Explicit-none filters yield no rows.
func (s *Store) LinesFiltered(ctx context.Context, propertyFilter, unitFilter IDFilter) ([]TransactionLine, error) {
	if propertyFilter.None() || unitFilter.None() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM transaction_lines WHERE 1 = 1`, lineColumns)
	var args []interface{}

	if !propertyFilter.All() {
		query += fmt.Sprintf(` AND property_id IN (%s)`, placeholders(len(propertyFilter)))
		args = append(args, stringArgs(propertyFilter)...)
	}
	if !unitFilter.All() {
		query += fmt.Sprintf(` AND unit_id IN (%s)`, placeholders(len(unitFilter)))
		args = append(args, stringArgs(unitFilter)...)
	}

	rows, err := s.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query filtered lines: %w", err)
	}
	defer rows.Close()

	return collectLines(rows)
}

// PropertyLinesBefore retrieves a property's postings dated strictly before
// the given date, subject to unit and account filters. This is the "prior"
// set of the ledger report.
func (s *Store) PropertyLinesBefore(ctx context.Context, propertyID, before string, unitFilter, accountFilter IDFilter) ([]TransactionLine, error) {
	if unitFilter.None() || accountFilter.None() {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transaction_lines
		WHERE property_id = ? AND date < ?
	`, lineColumns)
	args := []interface{}{propertyID, before}

	query, args = appendLineFilters(query, args, unitFilter, accountFilter)

	rows, err := s.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prior lines: %w", err)
	}
	defer rows.Close()

	return collectLines(rows)
}

// PropertyLinesBetween retrieves a property's postings within [from, to]
// inclusive, subject to unit and account filters. This is the "period" set
// of the ledger report.
func (s *Store) PropertyLinesBetween(ctx context.Context, propertyID, from, to string, unitFilter, accountFilter IDFilter) ([]TransactionLine, error) {
	if unitFilter.None() || accountFilter.None() {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transaction_lines
		WHERE property_id = ? AND date >= ? AND date <= ?
	`, lineColumns)
	args := []interface{}{propertyID, from, to}

	query, args = appendLineFilters(query, args, unitFilter, accountFilter)

	rows, err := s.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query period lines: %w", err)
	}
	defer rows.Close()

	return collectLines(rows)
}

func appendLineFilters(query string, args []interface{}, unitFilter, accountFilter IDFilter) (string, []interface{}) {
	if !unitFilter.All() {
		query += fmt.Sprintf(` AND unit_id IN (%s)`, placeholders(len(unitFilter)))
		args = append(args, stringArgs(unitFilter)...)
	}
	if !accountFilter.All() {
		query += fmt.Sprintf(` AND gl_account_id IN (%s)`, placeholders(len(accountFilter)))
		args = append(args, stringArgs(accountFilter)...)
	}
	return query, args
}

func collectLines(rows *sql.Rows) ([]TransactionLine, error) {
	var lines []TransactionLine
	for rows.Next() {
		var line TransactionLine
		var postingType, amount string
		var propertyID, unitID sql.NullString

		if err := rows.Scan(
			&line.ID,
			&line.TransactionID,
			&line.GLAccountID,
			&postingType,
			&amount,
			&propertyID,
			&unitID,
			&line.Date,
			&line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction line: %w", err)
		}

		line.PostingType = PostingType(postingType)
		parsed, err := parseAmount(amount)
		if err != nil {
			return nil, err
		}
		line.Amount = parsed
		if propertyID.Valid {
			line.PropertyID = propertyID.String
		}
		if unitID.Valid && unitID.String != "" {
			line.UnitID = &unitID.String
		}

		lines = append(lines, line)
	}
	return lines, rows.Err()
}
