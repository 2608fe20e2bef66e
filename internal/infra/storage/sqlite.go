package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"crypto_tracker/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists coin metadata and resolved quote history
type Storage struct {
	db *gorm.DB
}

// NewStorage opens the SQLite database. An empty path uses the per-OS
// default under the user config directory.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		var err error
		path, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.CoinInfo{}, &domain.QuoteRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// defaultDBPath resolves the database file path based on OS
func defaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "CryptoTracker", "data", "tracker.db"), nil
}

// ======================================================================================
// Coin Operations
// ======================================================================================

// UpsertCoin creates or updates coin metadata
func (s *Storage) UpsertCoin(coin *domain.CoinInfo) error {
	return s.db.Save(coin).Error
}

// GetCoin retrieves coin metadata by symbol
func (s *Storage) GetCoin(symbol string) (*domain.CoinInfo, error) {
	var coin domain.CoinInfo
	err := s.db.First(&coin, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &coin, err
}

// GetAllCoins retrieves all coins
func (s *Storage) GetAllCoins() ([]domain.CoinInfo, error) {
	var coins []domain.CoinInfo
	err := s.db.Find(&coins).Error
	return coins, err
}

// ======================================================================================
// Quote History Operations
// ======================================================================================

// AppendQuote records one successful price resolution
func (s *Storage) AppendQuote(record *domain.QuoteRecord) error {
	return s.db.Create(record).Error
}

// RecentQuotes returns the latest history rows for a symbol, newest first
func (s *Storage) RecentQuotes(symbol string, limit int) ([]domain.QuoteRecord, error) {
	var records []domain.QuoteRecord
	err := s.db.Where("symbol = ?", symbol).
		Order("fetched_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// PruneQuotesBefore deletes history older than the cutoff
func (s *Storage) PruneQuotesBefore(cutoff time.Time) error {
	return s.db.Where("fetched_at < ?", cutoff).Delete(&domain.QuoteRecord{}).Error
}
