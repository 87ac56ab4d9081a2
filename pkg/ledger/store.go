package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/db"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Store provides query access to the ledger database.
type Store struct {
	conn *db.Connection
}

// NewStore creates a new Store instance.
func NewStore(conn *db.Connection) *Store {
	return &Store{conn: conn}
}

// placeholders returns a comma-separated list of n SQL placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func stringArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// parseAmount parses a stored decimal string. Empty values are treated as zero.
func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", value, err)
	}
	return amount, nil
}

func nullableString(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt64(value *int64) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
