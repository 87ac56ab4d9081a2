package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, error, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            error,
		ErrorDescription: description,
	})
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// parseIDFilter parses a comma-separated id list query parameter into a
// three-state filter: an absent parameter means no filter, the literal value
// "none" is an explicit empty selection, anything else restricts to the
// listed ids.
func parseIDFilter(raw string) ledger.IDFilter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.EqualFold(raw, "none") {
		return ledger.IDFilter{}
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	if ids == nil {
		return ledger.IDFilter{}
	}
	return ledger.IDFilter(ids)
}
