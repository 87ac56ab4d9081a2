package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parkstreet-pm/backoffice/pkg/config"
	"github.com/parkstreet-pm/backoffice/pkg/db"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
	"github.com/parkstreet-pm/backoffice/pkg/report"
)

var (
	ledgerProperty string
	ledgerFrom     string
	ledgerTo       string
	ledgerUnits    []string
	ledgerAccounts []string
)

// ledgerCmd represents the ledger command.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Print a property's general-ledger report",
	Long: `Print a grouped general-ledger report for a property over a date
range, with per-account running balances.

Example:
  backoffice ledger --property prop-1 --from 2025-01-01 --to 2025-01-31
  backoffice ledger --property prop-1 --from 2025-01-01 --to 2025-01-31 --units unit-2`,
	Run: runLedger,
}

func init() {
	ledgerCmd.Flags().StringVar(&ledgerProperty, "property", "", "Property ID (required)")
	ledgerCmd.Flags().StringVar(&ledgerFrom, "from", "", "Start date (YYYY-MM-DD) (required)")
	ledgerCmd.Flags().StringVar(&ledgerTo, "to", "", "End date (YYYY-MM-DD) (required)")
	ledgerCmd.Flags().StringSliceVar(&ledgerUnits, "units", nil, "Restrict to unit IDs")
	ledgerCmd.Flags().StringSliceVar(&ledgerAccounts, "accounts", nil, "Restrict to GL account IDs")

	ledgerCmd.MarkFlagRequired("property")
	ledgerCmd.MarkFlagRequired("from")
	ledgerCmd.MarkFlagRequired("to")
}

func runLedger(cmd *cobra.Command, args []string) {
	slog.Info("Building ledger report", "property", ledgerProperty, "from", ledgerFrom, "to", ledgerTo)

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"database", "path"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	conn, err := db.Open(cfg.Database.Path)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	store := ledger.NewStore(conn)
	aggregator := report.NewAggregator(store)

	var unitFilter, accountFilter ledger.IDFilter
	if len(ledgerUnits) > 0 {
		unitFilter = ledger.IDFilter(ledgerUnits)
	}
	if len(ledgerAccounts) > 0 {
		accountFilter = ledger.IDFilter(ledgerAccounts)
	}

	rep, err := aggregator.LedgerReport(cmd.Context(), ledgerProperty, ledgerFrom, ledgerTo, unitFilter, accountFilter)
	exitOnError(err, "failed to build ledger report")

	fmt.Printf("\n=== Ledger: %s (%s to %s) ===\n", rep.PropertyID, rep.From, rep.To)
	if len(rep.Groups) == 0 {
		fmt.Println("No activity")
		return
	}

	for _, group := range rep.Groups {
		name := group.Account.Name
		if group.Account.AccountType != "" {
			name = fmt.Sprintf("%s (%s)", name, group.Account.AccountType)
		}
		fmt.Printf("\n%s\n%s\n", name, strings.Repeat("-", len(name)))
		fmt.Printf("  Prior balance: %12s\n", group.Prior.StringFixed(2))

		for _, line := range group.Lines {
			fmt.Printf("  %s  %-6s  %12s  balance %12s\n",
				line.Posting.Date,
				string(line.Posting.PostingType),
				line.Signed.StringFixed(2),
				line.Running.StringFixed(2))
		}

		fmt.Printf("  Period net:    %12s\n", group.Net.StringFixed(2))
		fmt.Printf("  Ending:        %12s\n", group.Ending.StringFixed(2))
	}
	fmt.Println()
}
