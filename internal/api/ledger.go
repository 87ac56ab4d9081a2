package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkstreet-pm/backoffice/pkg/report"
)

// LedgerHandler handles general-ledger report endpoints.
type LedgerHandler struct {
	aggregator *report.Aggregator
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(aggregator *report.Aggregator) *LedgerHandler {
	return &LedgerHandler{aggregator: aggregator}
}

// LedgerLine is the JSON shape of one period posting.
type LedgerLine struct {
	TransactionID string  `json:"transaction_id"`
	Date          string  `json:"date"`
	PostingType   string  `json:"posting_type"`
	Amount        string  `json:"amount"`
	SignedAmount  string  `json:"signed_amount"`
	Running       string  `json:"running_balance"`
	UnitID        *string `json:"unit_id,omitempty"`
}

// LedgerGroup is the JSON shape of one GL account's slice of the report.
type LedgerGroup struct {
	GLAccountID   string       `json:"gl_account_id"`
	AccountName   string       `json:"account_name"`
	AccountType   string       `json:"account_type"`
	PriorBalance  string       `json:"prior_balance"`
	PeriodNet     string       `json:"period_net"`
	EndingBalance string       `json:"ending_balance"`
	Lines         []LedgerLine `json:"lines"`
}

// GetReport handles GET /api/v1/properties/{id}/ledger.
// Required query parameters: from, to (YYYY-MM-DD). Optional units and gl are
// comma-separated id filters; the literal value "none" is an explicit empty
// selection.
func (h *LedgerHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing from or to date")
		return
	}

	unitFilter := parseIDFilter(r.URL.Query().Get("units"))
	accountFilter := parseIDFilter(r.URL.Query().Get("gl"))

	rep, err := h.aggregator.LedgerReport(r.Context(), propertyID, from, to, unitFilter, accountFilter)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Failed to build ledger report")
		return
	}

	groups := make([]LedgerGroup, 0, len(rep.Groups))
	for _, group := range rep.Groups {
		lines := make([]LedgerLine, 0, len(group.Lines))
		for _, line := range group.Lines {
			lines = append(lines, LedgerLine{
				TransactionID: line.Posting.TransactionID,
				Date:          line.Posting.Date,
				PostingType:   string(line.Posting.PostingType),
				Amount:        line.Posting.Amount.String(),
				SignedAmount:  line.Signed.String(),
				Running:       line.Running.String(),
				UnitID:        line.Posting.UnitID,
			})
		}
		groups = append(groups, LedgerGroup{
			GLAccountID:   group.Account.ID,
			AccountName:   group.Account.Name,
			AccountType:   group.Account.AccountType,
			PriorBalance:  group.Prior.String(),
			PeriodNet:     group.Net.String(),
			EndingBalance: group.Ending.String(),
			Lines:         lines,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"property_id": rep.PropertyID,
		"from":        rep.From,
		"to":          rep.To,
		"groups":      groups,
	})
}
