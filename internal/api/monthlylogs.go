package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
	"github.com/parkstreet-pm/backoffice/pkg/monthlylog"
)

// MonthlyLogsHandler handles monthly-log transaction endpoints.
type MonthlyLogsHandler struct {
	logs *monthlylog.Ledger
}

// NewMonthlyLogsHandler creates a new MonthlyLogsHandler.
func NewMonthlyLogsHandler(logs *monthlylog.Ledger) *MonthlyLogsHandler {
	return &MonthlyLogsHandler{logs: logs}
}

// AssignRequest is the body of POST /api/v1/monthly-logs/{logId}/transactions.
type AssignRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
}

// Assign handles POST /api/v1/monthly-logs/{logId}/transactions.
func (h *MonthlyLogsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logId")

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if len(req.TransactionIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing transaction_ids")
		return
	}

	results, err := h.logs.Assign(r.Context(), logID, req.TransactionIDs)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Monthly log not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to assign transactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Remove handles DELETE /api/v1/monthly-logs/{logId}/transactions/{txId}.
// The default is an unassign; with ?hard=true the underlying transaction is
// deleted outright.
func (h *MonthlyLogsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logId")
	txID := chi.URLParam(r, "txId")

	var err error
	if r.URL.Query().Get("hard") == "true" {
		err = h.logs.Delete(r.Context(), logID, txID)
	} else {
		err = h.logs.Unassign(r.Context(), logID, txID)
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to remove transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles GET /api/v1/monthly-logs/{logId}/transactions.
func (h *MonthlyLogsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logId")

	txs, err := h.logs.Transactions(r.Context(), logID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list transactions")
		return
	}

	type row struct {
		ID          string `json:"id"`
		Type        string `json:"transaction_type"`
		Date        string `json:"date"`
		Status      string `json:"status,omitempty"`
		TotalAmount string `json:"total_amount"`
		Memo        string `json:"memo,omitempty"`
	}
	rows := make([]row, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, row{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Date:        tx.Date,
			Status:      string(tx.Status),
			TotalAmount: tx.TotalAmount.String(),
			Memo:        tx.Memo,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": rows})
}

// Summary handles GET /api/v1/monthly-logs/{logId}/summary.
func (h *MonthlyLogsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logId")

	summary, err := h.logs.Summarize(r.Context(), logID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Monthly log not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to summarize monthly log")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"log_id":            summary.LogID,
		"charges_total":     summary.ChargesTotal.String(),
		"credits_total":     summary.CreditsTotal.String(),
		"payments_total":    summary.PaymentsTotal.String(),
		"total_rent_owed":   summary.TotalRentOwed.String(),
		"remaining_balance": summary.RemainingBalance.String(),
		"transaction_count": summary.TransactionCount,
	})
}
