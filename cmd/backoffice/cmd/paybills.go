package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parkstreet-pm/backoffice/pkg/billing"
	"github.com/parkstreet-pm/backoffice/pkg/buildium"
	"github.com/parkstreet-pm/backoffice/pkg/config"
	"github.com/parkstreet-pm/backoffice/pkg/db"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

var (
	payBillsFile string
	payDryRun    bool
)

// payBillsCmd represents the pay-bills command.
var payBillsCmd = &cobra.Command{
	Use:   "pay-bills",
	Short: "Submit a batch of check payments",
	Long: `Submit a batch of check payments described in a YAML file.

Each item is validated and submitted independently; a rejected or failed
item does not abort the rest of the batch.

The file lists payments:

  payments:
    - bill_id: bill-123
      amount: "450.00"
      pay_date: 2025-01-15
      bank_gl_account_id: gl-operating
      check_number: "1041"
      memo: January maintenance

Example:
  backoffice pay-bills --file payments.yaml
  backoffice pay-bills --file payments.yaml --dry-run`,
	Run: runPayBills,
}

func init() {
	payBillsCmd.Flags().StringVar(&payBillsFile, "file", "", "YAML file with payments (required)")
	payBillsCmd.Flags().BoolVar(&payDryRun, "dry-run", false, "Validate only, do not submit to Buildium")

	payBillsCmd.MarkFlagRequired("file")
}

// payBillsInput is the YAML shape of a payment batch file.
type payBillsInput struct {
	Payments []struct {
		BillID          string `yaml:"bill_id"`
		Amount          string `yaml:"amount"`
		PayDate         string `yaml:"pay_date"`
		BankGLAccountID string `yaml:"bank_gl_account_id"`
		CheckNumber     string `yaml:"check_number"`
		Memo            string `yaml:"memo"`
	} `yaml:"payments"`
}

// dryRunGateway accepts every payment without submitting it.
type dryRunGateway struct{}

func (dryRunGateway) CreateBillPayment(_ context.Context, billID int64, payment buildium.BillPaymentRequest) (*buildium.BillPaymentResponse, error) {
	slog.Info("dry run: would submit payment",
		"buildium_bill_id", billID,
		"amount", payment.Amount,
		"date", payment.Date)
	return &buildium.BillPaymentResponse{BillID: billID}, nil
}

func runPayBills(cmd *cobra.Command, args []string) {
	slog.Info("Starting check payment batch", "file", payBillsFile, "dry_run", payDryRun)

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	required := [][]string{{"database", "path"}}
	if !payDryRun {
		required = append(required,
			[]string{"buildium", "apiUrl"},
			[]string{"buildium", "apiKey"},
		)
	}
	if err := cfg.Validate(required...); err != nil {
		exitOnError(err, "invalid configuration")
	}

	data, err := os.ReadFile(payBillsFile)
	exitOnError(err, "failed to read payments file")

	var input payBillsInput
	exitOnError(yaml.Unmarshal(data, &input), "failed to parse payments file")
	if len(input.Payments) == 0 {
		fmt.Println("No payments in file")
		return
	}

	items := make([]billing.CheckPaymentItem, 0, len(input.Payments))
	for _, p := range input.Payments {
		amount, err := decimal.NewFromString(p.Amount)
		exitOnError(err, fmt.Sprintf("invalid amount for bill %s", p.BillID))

		items = append(items, billing.CheckPaymentItem{
			BillID:          p.BillID,
			Amount:          amount,
			PayDate:         p.PayDate,
			BankGLAccountID: p.BankGLAccountID,
			CheckNumber:     p.CheckNumber,
			Memo:            p.Memo,
		})
	}

	conn, err := db.Open(cfg.Database.Path)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	store := ledger.NewStore(conn)

	var gateway billing.Gateway
	if payDryRun {
		gateway = dryRunGateway{}
	} else {
		gateway = buildium.NewClient(buildium.ClientConfig{
			BaseURL:           cfg.Buildium.APIURL,
			APIKey:            cfg.Buildium.APIKey,
			Timeout:           cfg.Buildium.Timeout,
			RequestsPerSecond: cfg.Buildium.RequestsPerSecond,
		})
	}

	runner := billing.NewCheckRunner(store, gateway)
	results, err := runner.SubmitCheckPayments(cmd.Context(), items)
	exitOnError(err, "failed to process check payments")

	submitted := 0
	fmt.Println("\n=== Check Payment Results ===")
	for _, res := range results {
		if res.Success {
			submitted++
			fmt.Printf("%-20s OK\n", res.BillID)
		} else {
			fmt.Printf("%-20s FAILED: %s\n", res.BillID, res.Error)
		}
	}
	fmt.Printf("\n%d of %d payments succeeded\n", submitted, len(results))
	if payDryRun {
		fmt.Println("(dry run: nothing was submitted)")
	}
}
