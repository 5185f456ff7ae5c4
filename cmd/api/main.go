package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tabungan/internal/app"
	"github.com/MrJamesThe3rd/tabungan/internal/config"
	tabunganHttp "github.com/MrJamesThe3rd/tabungan/internal/http"
	authHandler "github.com/MrJamesThe3rd/tabungan/internal/http/auth"
	feedHandler "github.com/MrJamesThe3rd/tabungan/internal/http/feed"
	importHandler "github.com/MrJamesThe3rd/tabungan/internal/http/importcsv"
	studentHandler "github.com/MrJamesThe3rd/tabungan/internal/http/student"
	txHandler "github.com/MrJamesThe3rd/tabungan/internal/http/transaction"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(app.NewLogger(os.Stderr, cfg.App.LogFormat, cfg.App.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	router := tabunganHttp.New(a.Auth, cfg.Server.AllowedOrigins, tabunganHttp.Handlers{
		Auth:         authHandler.NewHandler(a.Auth),
		Students:     studentHandler.NewHandler(a.Students, a.Balances, a.Statements),
		Transactions: txHandler.NewHandler(a.Transactions, a.Students),
		Import:       importHandler.NewHandler(a.Importer, a.Students, a.Transactions, a.Users),
		Feed:         feedHandler.NewHandler(a.Hub, cfg.Server.AllowedOrigins),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
