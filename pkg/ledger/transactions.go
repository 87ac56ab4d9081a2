package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

const transactionColumns = `id, transaction_type, date, due_date, paid_date, status,
	total_amount, memo, reference_number, vendor_id, bill_transaction_id,
	buildium_bill_id, monthly_log_id, created_at`

// InsertTransaction inserts a transaction row.
func (s *Store) InsertTransaction(ctx context.Context, txn Transaction) error {
	query := `
		INSERT INTO transactions (id, transaction_type, date, due_date, paid_date, status,
			total_amount, memo, reference_number, vendor_id, bill_transaction_id,
			buildium_bill_id, monthly_log_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.GetDB().ExecContext(ctx, query,
		txn.ID,
		string(txn.Type),
		txn.Date,
		nullableString(txn.DueDate),
		nullableString(txn.PaidDate),
		string(txn.Status),
		txn.TotalAmount.String(),
		txn.Memo,
		txn.ReferenceNumber,
		nullableString(txn.VendorID),
		nullableString(txn.BillTransactionID),
		nullableInt64(txn.BuildiumBillID),
		nullableString(txn.MonthlyLogID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// TransactionByID retrieves a transaction by id.
func (s *Store) TransactionByID(ctx context.Context, id string) (*Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = ?`, transactionColumns)

	row := s.conn.GetDB().QueryRowContext(ctx, query, id)
	txn, err := scanTransactionRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// BillsByIDs retrieves Bill transactions for the given ids, optionally
// restricted to a vendor filter.
func (s *Store) BillsByIDs(ctx context.Context, ids []string, vendorFilter IDFilter) ([]Transaction, error) {
	if len(ids) == 0 || vendorFilter.None() {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE transaction_type = ? AND id IN (%s)
	`, transactionColumns, placeholders(len(ids)))
	args := append([]interface{}{string(TypeBill)}, stringArgs(ids)...)

	if !vendorFilter.All() {
		query += fmt.Sprintf(` AND vendor_id IN (%s)`, placeholders(len(vendorFilter)))
		args = append(args, stringArgs(vendorFilter)...)
	}

	rows, err := s.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// PaymentsByBillIDs retrieves Payment and Check transactions keyed by their
// local bill reference (bill_transaction_id).
func (s *Store) PaymentsByBillIDs(ctx context.Context, billIDs []string) (map[string][]Transaction, error) {
	if len(billIDs) == 0 {
		return map[string][]Transaction{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE transaction_type IN (?, ?) AND bill_transaction_id IN (%s)
	`, transactionColumns, placeholders(len(billIDs)))
	args := append([]interface{}{string(TypePayment), string(TypeCheck)}, stringArgs(billIDs)...)

	rows, err := s.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments by bill id: %w", err)
	}
	defer rows.Close()

	payments, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	byBill := make(map[string][]Transaction)
	for _, p := range payments {
		if p.BillTransactionID == nil {
			continue
		}
		byBill[*p.BillTransactionID] = append(byBill[*p.BillTransactionID], p)
	}
	return byBill, nil
}

// PaymentsByExternalBillIDs retrieves Payment and Check transactions keyed by
// the external ledger system's bill id (buildium_bill_id).
func (s *Store) PaymentsByExternalBillIDs(ctx context.Context, externalIDs []int64) (map[int64][]Transaction, error) {
	if len(externalIDs) == 0 {
		return map[int64][]Transaction{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE transaction_type IN (?, ?) AND buildium_bill_id IN (%s)
	`, transactionColumns, placeholders(len(externalIDs)))
	args := append([]interface{}{string(TypePayment), string(TypeCheck)}, int64Args(externalIDs)...)

	rows, err := s.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments by external bill id: %w", err)
	}
	defer rows.Close()

	payments, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	byExternal := make(map[int64][]Transaction)
	for _, p := range payments {
		if p.BuildiumBillID == nil {
			continue
		}
		byExternal[*p.BuildiumBillID] = append(byExternal[*p.BuildiumBillID], p)
	}
	return byExternal, nil
}

// UpdateBillStatus updates a bill's stored status from an expected prior
// value. The compare-and-set guards against clobbering a concurrent update;
// it returns false when the stored status no longer matches.
func (s *Store) UpdateBillStatus(ctx context.Context, id string, from, to BillStatus) (bool, error) {
	query := `UPDATE transactions SET status = ? WHERE id = ? AND transaction_type = ? AND status = ?`

	result, err := s.conn.GetDB().ExecContext(ctx, query, string(to), id, string(TypeBill), string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update bill status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// TransactionCounts returns the number of transactions per type.
func (s *Store) TransactionCounts(ctx context.Context) (map[TransactionType]int, error) {
	query := `SELECT transaction_type, COUNT(*) FROM transactions GROUP BY transaction_type`

	rows, err := s.conn.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	defer rows.Close()

	counts := make(map[TransactionType]int)
	for rows.Next() {
		var txType string
		var count int
		if err := rows.Scan(&txType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan transaction count: %w", err)
		}
		counts[TransactionType(txType)] = count
	}

	return counts, rows.Err()
}

// scanTransactionRow scans one transaction row via the given scan function.
func scanTransactionRow(scan func(dest ...interface{}) error) (*Transaction, error) {
	var txn Transaction
	var txType, status, totalAmount string
	var dueDate, paidDate, memo, refNumber, vendorID, billTxID, monthlyLogID sql.NullString
	var buildiumBillID sql.NullInt64

	err := scan(
		&txn.ID,
		&txType,
		&txn.Date,
		&dueDate,
		&paidDate,
		&status,
		&totalAmount,
		&memo,
		&refNumber,
		&vendorID,
		&billTxID,
		&buildiumBillID,
		&monthlyLogID,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = TransactionType(txType)
	txn.Status = NormalizeBillStatus(status)
	amount, err := parseAmount(totalAmount)
	if err != nil {
		return nil, err
	}
	txn.TotalAmount = amount

	if dueDate.Valid && dueDate.String != "" {
		txn.DueDate = &dueDate.String
	}
	if paidDate.Valid && paidDate.String != "" {
		txn.PaidDate = &paidDate.String
	}
	if memo.Valid {
		txn.Memo = memo.String
	}
	if refNumber.Valid {
		txn.ReferenceNumber = refNumber.String
	}
	if vendorID.Valid && vendorID.String != "" {
		txn.VendorID = &vendorID.String
	}
	if billTxID.Valid && billTxID.String != "" {
		txn.BillTransactionID = &billTxID.String
	}
	if buildiumBillID.Valid {
		txn.BuildiumBillID = &buildiumBillID.Int64
	}
	if monthlyLogID.Valid && monthlyLogID.String != "" {
		txn.MonthlyLogID = &monthlyLogID.String
	}

	return &txn, nil
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	var txns []Transaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}
