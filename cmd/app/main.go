package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto_tracker/internal/app"
	"crypto_tracker/internal/infra/rates"
	"crypto_tracker/internal/infra/sources"
	"crypto_tracker/internal/server"
	"crypto_tracker/internal/service"
)

func main() {
	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Background icon sync for the tracked tokens
	go bootstrap.SyncIcons(ctx)

	// 4. Core: rate store + poller
	rateStore := rates.NewStore(cfg.Sources.RateProviders)
	poller := service.NewPoller(
		bootstrap.Settings,
		rateStore,
		bootstrap.Storage,
		sources.Aggregator(cfg.Sources.AggregatorURL),
		sources.Exchanges(cfg.Sources.ExchangeBases),
		time.Duration(cfg.HTTP.TimeoutSec)*time.Second,
	)
	if err := poller.Start(ctx); err != nil {
		slog.Error("failed to start poller", slog.Any("error", err))
		os.Exit(1)
	}
	defer poller.Stop()

	// 5. Display transport: websocket hub fed by the snapshot channel
	hub := server.NewHub()
	go hub.Run(ctx, poller.Snapshots())

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}
	go func() {
		slog.Info("display endpoint listening", slog.String("addr", cfg.Server.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("display endpoint failed", slog.Any("error", err))
		}
	}()

	slog.Info("crypto tracker operational, press Ctrl+C to exit")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("display endpoint shutdown failed", slog.Any("error", err))
	}
}
