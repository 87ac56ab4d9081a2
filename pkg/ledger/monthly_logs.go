package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// MonthlyLogByID retrieves a monthly statement bucket by id.
func (s *Store) MonthlyLogByID(ctx context.Context, id string) (*MonthlyLog, error) {
	query := `SELECT id, unit_id, property_id, period_start FROM monthly_logs WHERE id = ?`

	var log MonthlyLog
	var unitID, propertyID sql.NullString

	err := s.conn.GetDB().QueryRowContext(ctx, query, id).Scan(&log.ID, &unitID, &propertyID, &log.PeriodStart)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly log: %w", err)
	}

	if unitID.Valid && unitID.String != "" {
		log.UnitID = &unitID.String
	}
	if propertyID.Valid && propertyID.String != "" {
		log.PropertyID = &propertyID.String
	}

	return &log, nil
}

// InsertMonthlyLog inserts a monthly statement bucket row.
func (s *Store) InsertMonthlyLog(ctx context.Context, log MonthlyLog) error {
	query := `INSERT INTO monthly_logs (id, unit_id, property_id, period_start) VALUES (?, ?, ?, ?)`

	_, err := s.conn.GetDB().ExecContext(ctx, query,
		log.ID, nullableString(log.UnitID), nullableString(log.PropertyID), log.PeriodStart)
	if err != nil {
		return fmt.Errorf("failed to insert monthly log: %w", err)
	}
	return nil
}

// AssignTransactionToLog sets a transaction's monthly-log bucket. Assigning a
// transaction already in the bucket is a no-op. The bucket column is single
// valued, so a transaction is never in two buckets at once; callers unassign
// before reassigning elsewhere.
func (s *Store) AssignTransactionToLog(ctx context.Context, logID, txID string) error {
	query := `UPDATE transactions SET monthly_log_id = ? WHERE id = ?`

	result, err := s.conn.GetDB().ExecContext(ctx, query, logID, txID)
	if err != nil {
		return fmt.Errorf("failed to assign transaction to monthly log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// UnassignTransactionFromLog clears a transaction's monthly-log bucket. It is
// a no-op if the transaction is not a member of the given bucket.
func (s *Store) UnassignTransactionFromLog(ctx context.Context, logID, txID string) error {
	query := `UPDATE transactions SET monthly_log_id = NULL WHERE id = ? AND monthly_log_id = ?`

	if _, err := s.conn.GetDB().ExecContext(ctx, query, txID, logID); err != nil {
		return fmt.Errorf("failed to unassign transaction from monthly log: %w", err)
	}

	return nil
}

// DeleteLogTransaction permanently removes a transaction (and its postings)
// from a monthly-log bucket's scope. Used for transactions created in error;
// distinct from unassign, which only clears the membership.
func (s *Store) DeleteLogTransaction(ctx context.Context, logID, txID string) (bool, error) {
	var deleted bool
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		var member int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM transactions WHERE id = ? AND monthly_log_id = ?`, txID, logID).Scan(&member)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check log membership: %w", err)
		}

		// Postings first; they reference the transaction row.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_lines WHERE transaction_id = ?`, txID); err != nil {
			return fmt.Errorf("failed to delete transaction lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ?`, txID); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

// TransactionsForMonthlyLog retrieves the transactions assigned to a bucket,
// newest first.
func (s *Store) TransactionsForMonthlyLog(ctx context.Context, logID string) ([]Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE monthly_log_id = ?
		ORDER BY date DESC, created_at DESC
	`, transactionColumns)

	rows, err := s.conn.GetDB().QueryContext(ctx, query, logID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly log transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// MonthlyLogCount returns the number of monthly statement buckets.
func (s *Store) MonthlyLogCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.GetDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM monthly_logs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count monthly logs: %w", err)
	}
	return count, nil
}
