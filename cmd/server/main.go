package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"shopbilling/auth"
	"shopbilling/config"
	"shopbilling/handlers"
	"shopbilling/logging"
	"shopbilling/repository"
	"shopbilling/routes"
	"shopbilling/service"
	"shopbilling/sms"
	"shopbilling/store"
	"shopbilling/utils"
)

func main() {
	// Load config from .env or environment
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Setup("info")
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	st, err := store.Open(cfg, true)
	if err != nil {
		slog.Error("Failed to open bill store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	provider := sms.NewProvider(cfg.SMS)
	sender := sms.NewSender(provider, cfg.Shop, cfg.SMS.Timeout)
	billService := service.NewBillService(st.Bills, sender)
	verifier := auth.NewVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)

	receipts := &handlers.ReceiptHandler{
		Repo:     repository.NewReceiptRepository(st.Bills, cfg.Shop),
		Renderer: utils.ChromeRenderer{},
	}
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Store(context.Background(), cfg.R2)
		if err != nil {
			slog.Error("R2 disabled", "error", err)
		} else {
			receipts.Uploader = r2
		}
	}

	handler := routes.New(routes.Deps{
		Bills:      &handlers.BillHandler{Service: billService},
		Auth:       &handlers.AuthHandler{Verifier: verifier},
		Receipts:   receipts,
		Health:     &handlers.HealthHandler{Store: billService},
		Verifier:   verifier,
		Limiters:   routes.DefaultLimiters(),
		CORSOrigin: cfg.CORSOrigin,
		StaticDir:  cfg.StaticDir,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// receipts can take a while to print
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting",
			"port", cfg.Port,
			"db", cfg.DBType,
			"sms_provider", sender.ProviderName(),
			"shop", cfg.Shop.Name,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server exited gracefully.")
}
