package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crypto_tracker/internal/domain"
	"crypto_tracker/internal/infra"
	"crypto_tracker/internal/infra/storage"
	"crypto_tracker/internal/settings"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Settings   *settings.Store
	Storage    *storage.Storage
	Downloader *infra.IconDownloader
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, icons)
func (b *Bootstrap) Initialize() error {
	// 1. Load App Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("bootstrapping", slog.String("app", cfg.App.Name), slog.String("version", cfg.App.Version))

	// 3. Load User Settings (config.json, rewritten after load)
	b.Settings = settings.NewStore(cfg.Paths.Settings)
	if err := b.Settings.Load(); err != nil {
		return err
	}
	slog.Info("settings loaded",
		slog.Any("tokens", b.Settings.Current().Tokens),
		slog.String("currency", string(b.Settings.Current().Currency)),
		slog.Int("interval_sec", b.Settings.Current().UpdateInterval),
	)

	// 4. Initialize Storage (quote history)
	store, err := storage.NewStorage(cfg.Paths.Database)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("database initialized")

	// 5. Initialize Icon Downloader
	downloader, err := infra.NewIconDownloader()
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("icon downloader ready")

	return nil
}

// SyncIcons synchronizes coin metadata and icons for the tracked tokens in
// the background.
func (b *Bootstrap) SyncIcons(ctx context.Context) {
	tokens := b.Settings.Current().Tokens
	slog.Info("starting icon synchronization", slog.Int("tokens", len(tokens)))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, symbol := range tokens {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			coin := &domain.CoinInfo{
				Symbol:    sym,
				Name:      sym, // Default to symbol until dynamic lookup
				IsActive:  true,
				UpdatedAt: time.Now(),
			}

			// Preserve existing metadata
			if existing, _ := b.Storage.GetCoin(sym); existing != nil {
				coin.IconPath = existing.IconPath
				coin.LastSyncedAt = existing.LastSyncedAt
				coin.CreatedAt = existing.CreatedAt
			}

			if err := b.Storage.UpsertCoin(coin); err != nil {
				slog.Error("failed to upsert coin", slog.String("symbol", sym), slog.Any("error", err))
			}

			// Download Icon (if missing)
			path, err := b.Downloader.DownloadIcon(sym)
			if err != nil {
				slog.Warn("failed to download icon", slog.String("symbol", sym), slog.Any("error", err))
			} else if path != "" {
				coin.IconPath = path
				coin.LastSyncedAt = time.Now()
				b.Storage.UpsertCoin(coin)
			}
		}(symbol)
	}

	wg.Wait()
	slog.Info("icon synchronization completed")
}
