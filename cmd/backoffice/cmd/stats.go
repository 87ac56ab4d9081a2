package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/parkstreet-pm/backoffice/pkg/billing"
	"github.com/parkstreet-pm/backoffice/pkg/config"
	"github.com/parkstreet-pm/backoffice/pkg/db"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display ledger statistics",
	Long: `Display statistics about the ledger store.

Shows:
- Transaction counts by type
- Number of unpaid bills
- Number of monthly logs

Example:
  backoffice stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"database", "path"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	conn, err := db.Open(cfg.Database.Path)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	store := ledger.NewStore(conn)

	counts, err := store.TransactionCounts(cmd.Context())
	exitOnError(err, "failed to get transaction counts")

	logCount, err := store.MonthlyLogCount(cmd.Context())
	exitOnError(err, "failed to get monthly log count")

	unpaid, err := billing.NewService(store).ListUnpaidBills(cmd.Context(), billing.UnpaidBillFilters{})
	exitOnError(err, "failed to list unpaid bills")

	fmt.Println("\n=== Ledger Statistics ===")
	fmt.Printf("Bills:          %d\n", counts[ledger.TypeBill])
	fmt.Printf("Payments:       %d\n", counts[ledger.TypePayment]+counts[ledger.TypeCheck])
	fmt.Printf("Charges:        %d\n", counts[ledger.TypeCharge])
	fmt.Printf("Credits:        %d\n", counts[ledger.TypeCredit])
	fmt.Printf("Unpaid bills:   %d\n", len(unpaid))
	fmt.Printf("Monthly logs:   %d\n", logCount)
	fmt.Println()

	slog.Info("Statistics displayed successfully")
}
