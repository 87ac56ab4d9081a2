package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/parkstreet-pm/backoffice/pkg/billing"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// BillsHandler handles bill settlement API endpoints.
type BillsHandler struct {
	service *billing.Service
	runner  *billing.CheckRunner
}

// NewBillsHandler creates a new BillsHandler.
func NewBillsHandler(service *billing.Service, runner *billing.CheckRunner) *BillsHandler {
	return &BillsHandler{service: service, runner: runner}
}

// UnpaidBill is the JSON shape of one unpaid bill row.
type UnpaidBill struct {
	ID                              string  `json:"id"`
	VendorID                        *string `json:"vendor_id,omitempty"`
	VendorName                      string  `json:"vendor_name"`
	VendorInsuranceMissingOrExpired bool    `json:"vendor_insurance_missing_or_expired"`
	PropertyID                      *string `json:"property_id,omitempty"`
	PropertyName                    string  `json:"property_name,omitempty"`
	UnitID                          *string `json:"unit_id,omitempty"`
	UnitLabel                       string  `json:"unit_label,omitempty"`
	BuildiumBillID                  *int64  `json:"buildium_bill_id,omitempty"`
	Date                            string  `json:"date"`
	DueDate                         *string `json:"due_date,omitempty"`
	Status                          string  `json:"status"`
	Memo                            string  `json:"memo,omitempty"`
	ReferenceNumber                 string  `json:"reference_number,omitempty"`
	TotalAmount                     string  `json:"total_amount"`
	RemainingAmount                 string  `json:"remaining_amount"`
	OperatingBankGLAccountID        *string `json:"operating_bank_gl_account_id,omitempty"`
	BankHasBuildiumID               bool    `json:"bank_has_buildium_id"`
}

// ListUnpaid handles GET /api/v1/bills/unpaid.
// Query parameters properties, units, vendors and statuses are comma-separated
// lists; the literal value "none" for an id filter is an explicit empty
// selection and yields an empty result.
func (h *BillsHandler) ListUnpaid(w http.ResponseWriter, r *http.Request) {
	filters := billing.UnpaidBillFilters{
		PropertyIDs: parseIDFilter(r.URL.Query().Get("properties")),
		UnitIDs:     parseIDFilter(r.URL.Query().Get("units")),
		VendorIDs:   parseIDFilter(r.URL.Query().Get("vendors")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("statuses")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if status := ledger.NormalizeBillStatus(part); status != ledger.StatusNone {
				filters.Statuses = append(filters.Statuses, status)
			}
		}
	}

	rows, err := h.service.ListUnpaidBills(r.Context(), filters)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list unpaid bills")
		return
	}

	bills := make([]UnpaidBill, 0, len(rows))
	for _, row := range rows {
		bills = append(bills, UnpaidBill{
			ID:                              row.ID,
			VendorID:                        row.VendorID,
			VendorName:                      row.VendorName,
			VendorInsuranceMissingOrExpired: row.VendorInsuranceMissingOrExpired,
			PropertyID:                      row.PropertyID,
			PropertyName:                    row.PropertyName,
			UnitID:                          row.UnitID,
			UnitLabel:                       row.UnitLabel,
			BuildiumBillID:                  row.BuildiumBillID,
			Date:                            row.Date,
			DueDate:                         row.DueDate,
			Status:                          string(row.Status),
			Memo:                            row.Memo,
			ReferenceNumber:                 row.ReferenceNumber,
			TotalAmount:                     row.TotalAmount.String(),
			RemainingAmount:                 row.RemainingAmount.String(),
			OperatingBankGLAccountID:        row.OperatingBankGLAccountID,
			BankHasBuildiumID:               row.BankHasBuildiumID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

// PrepareRequest is the body of POST /api/v1/bills/prepare.
type PrepareRequest struct {
	BillIDs []string `json:"bill_ids"`
}

// PreparedBill is the JSON shape of one bill readied for check payment.
type PreparedBill struct {
	ID                       string  `json:"id"`
	BuildiumBillID           *int64  `json:"buildium_bill_id,omitempty"`
	VendorName               string  `json:"vendor_name"`
	PropertyID               *string `json:"property_id,omitempty"`
	PropertyName             string  `json:"property_name,omitempty"`
	OperatingBankGLAccountID *string `json:"operating_bank_gl_account_id,omitempty"`
	RemainingAmount          string  `json:"remaining_amount"`
}

// Prepare handles POST /api/v1/bills/prepare.
func (h *BillsHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	var req PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if len(req.BillIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing bill_ids")
		return
	}

	prepared, err := h.service.PrepareBillsForPayment(r.Context(), req.BillIDs)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to prepare bills")
		return
	}

	bills := make([]PreparedBill, 0, len(prepared))
	for _, row := range prepared {
		bills = append(bills, PreparedBill{
			ID:                       row.ID,
			BuildiumBillID:           row.BuildiumBillID,
			VendorName:               row.VendorName,
			PropertyID:               row.PropertyID,
			PropertyName:             row.PropertyName,
			OperatingBankGLAccountID: row.OperatingBankGLAccountID,
			RemainingAmount:          row.RemainingAmount.String(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

// CheckPaymentRequest is one item in the body of POST /api/v1/bills/check-payments.
type CheckPaymentRequest struct {
	BillID          string          `json:"bill_id"`
	Amount          decimal.Decimal `json:"amount"`
	PayDate         string          `json:"pay_date"`
	BankGLAccountID string          `json:"bank_gl_account_id"`
	CheckNumber     string          `json:"check_number,omitempty"`
	Memo            string          `json:"memo,omitempty"`
}

// CheckPaymentOutcome is the per-item result of a check payment batch.
type CheckPaymentOutcome struct {
	BillID  string `json:"bill_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SubmitCheckPayments handles POST /api/v1/bills/check-payments. The batch
// always returns 200 with one outcome per requested bill id; callers must not
// assume all-or-nothing semantics.
func (h *BillsHandler) SubmitCheckPayments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payments []CheckPaymentRequest `json:"payments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if len(req.Payments) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing payments")
		return
	}

	items := make([]billing.CheckPaymentItem, 0, len(req.Payments))
	for _, p := range req.Payments {
		items = append(items, billing.CheckPaymentItem{
			BillID:          p.BillID,
			Amount:          p.Amount,
			PayDate:         p.PayDate,
			BankGLAccountID: p.BankGLAccountID,
			CheckNumber:     p.CheckNumber,
			Memo:            p.Memo,
		})
	}

	results, err := h.runner.SubmitCheckPayments(r.Context(), items)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to process check payments")
		return
	}

	outcomes := make([]CheckPaymentOutcome, 0, len(results))
	for _, res := range results {
		outcomes = append(outcomes, CheckPaymentOutcome{
			BillID:  res.BillID,
			Success: res.Success,
			Error:   res.Error,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": outcomes})
}

// ReconcileStatusesRequest is the body of POST /api/v1/bills/reconcile-statuses.
type ReconcileStatusesRequest struct {
	BillIDs []string `json:"bill_ids"`
}

// ReconcileStatuses handles POST /api/v1/bills/reconcile-statuses: it
// recomputes each bill's effective status and persists any corrections.
func (h *BillsHandler) ReconcileStatuses(w http.ResponseWriter, r *http.Request) {
	var req ReconcileStatusesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if len(req.BillIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing bill_ids")
		return
	}

	balances, corrected, err := h.service.ReconcileStatuses(r.Context(), req.BillIDs)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to reconcile bill statuses")
		return
	}

	type reconciled struct {
		BillID          string `json:"bill_id"`
		Status          string `json:"status"`
		PaidTotal       string `json:"paid_total"`
		RemainingAmount string `json:"remaining_amount"`
	}
	bills := make([]reconciled, 0, len(balances))
	for _, b := range balances {
		bills = append(bills, reconciled{
			BillID:          b.Bill.ID,
			Status:          string(b.EffectiveStatus),
			PaidTotal:       b.PaidTotal.String(),
			RemainingAmount: b.Remaining.String(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bills":     bills,
		"corrected": corrected,
	})
}
