package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parkstreet-pm/backoffice/internal/api"
	"github.com/parkstreet-pm/backoffice/pkg/buildium"
	"github.com/parkstreet-pm/backoffice/pkg/config"
	"github.com/parkstreet-pm/backoffice/pkg/db"
	"github.com/parkstreet-pm/backoffice/pkg/ledger"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the back-office HTTP API",
	Long: `Run the back-office HTTP API server.

Serves bill settlement, check payment, general-ledger and monthly-log
endpoints under /api/v1.

Example:
  backoffice serve
  backoffice serve --config config.yaml`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Server logs are structured JSON.
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate(
		[]string{"buildium", "apiUrl"},
		[]string{"buildium", "apiKey"},
		[]string{"database", "path"},
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	conn, err := db.Open(cfg.Database.Path)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	slog.Info("database initialized", "db_path", cfg.Database.Path)

	store := ledger.NewStore(conn)
	gateway := buildium.NewClient(buildium.ClientConfig{
		BaseURL:           cfg.Buildium.APIURL,
		APIKey:            cfg.Buildium.APIKey,
		Timeout:           cfg.Buildium.Timeout,
		RequestsPerSecond: cfg.Buildium.RequestsPerSecond,
	})

	router := api.NewRouter(store, gateway)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("starting back-office API", "addr", addr)

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
