// Package api exposes the back-office accounting engine over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parkstreet-pm/backoffice/pkg/billing"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
	"github.com/parkstreet-pm/backoffice/pkg/monthlylog"
	"github.com/parkstreet-pm/backoffice/pkg/report"
)

// NewRouter builds the HTTP router over the given store and payment gateway.
func NewRouter(store *ledger.Store, gateway billing.Gateway) *chi.Mux {
	billsHandler := NewBillsHandler(
		billing.NewService(store),
		billing.NewCheckRunner(store, gateway),
	)
	ledgerHandler := NewLedgerHandler(report.NewAggregator(store))
	logsHandler := NewMonthlyLogsHandler(monthlylog.NewLedger(store))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/bills", func(r chi.Router) {
			r.Get("/unpaid", billsHandler.ListUnpaid)
			r.Post("/prepare", billsHandler.Prepare)
			r.Post("/check-payments", billsHandler.SubmitCheckPayments)
			r.Post("/reconcile-statuses", billsHandler.ReconcileStatuses)
		})

		r.Get("/properties/{id}/ledger", ledgerHandler.GetReport)

		r.Route("/monthly-logs/{logId}", func(r chi.Router) {
			r.Get("/transactions", logsHandler.ListTransactions)
			r.Post("/transactions", logsHandler.Assign)
			r.Delete("/transactions/{txId}", logsHandler.Remove)
			r.Get("/summary", logsHandler.Summary)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
