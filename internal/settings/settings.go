// Package settings persists the user-facing widget settings as a flat JSON
// file (config.json). Missing keys fall back to defaults and the file is
// rewritten after every load and every change, so it always reflects the
// full recognized key set.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"crypto_tracker/internal/domain"
)

// Settings mirrors the recognized config.json keys.
type Settings struct {
	Tokens         []string            `json:"tokens"`
	Currency       domain.CurrencyCode `json:"currency"`
	UpdateInterval int                 `json:"update_interval"` // seconds
	Transparency   float64             `json:"transparency"`    // 0.0 - 1.0
	AlwaysOnTop    bool                `json:"always_on_top"`
	FontFamily     string              `json:"font_family"`
	FontSize       int                 `json:"font_size"`
	BgColor        string              `json:"bg_color"`
	TextColor      string              `json:"text_color"`
}

// Default returns the documented defaults.
func Default() Settings {
	return Settings{
		Tokens:         []string{"ETH", "BTC", "SOL"},
		Currency:       domain.USD,
		UpdateInterval: 60,
		Transparency:   0.95,
		AlwaysOnTop:    false,
		FontFamily:     "Arial",
		FontSize:       12,
		BgColor:        "#0f1729",
		TextColor:      "#ffffff",
	}
}

// Store owns the settings file and the current in-memory copy.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

// NewStore creates a store for the given file path without touching disk.
func NewStore(path string) *Store {
	return &Store{path: path, current: Default()}
}

// Load reads the settings file, merging it over the defaults so missing keys
// keep their default values, then rewrites the file. A missing file is not
// an error; a corrupt one is logged and replaced with defaults.
func (s *Store) Load() error {
	loaded := Default()

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &loaded); err != nil {
			slog.Warn("settings file corrupt, using defaults", slog.String("path", s.path), slog.Any("error", err))
			loaded = Default()
		}
	case os.IsNotExist(err):
		slog.Info("settings file missing, writing defaults", slog.String("path", s.path))
	default:
		return err
	}

	normalize(&loaded)

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	return s.save()
}

// normalize repairs values the rest of the system relies on: uppercase
// tickers, a sane interval, and transparency clamped to its range. The
// currency code is kept as-is even when unrecognized; conversion treats
// unknown codes as USD passthrough.
func normalize(st *Settings) {
	for i, token := range st.Tokens {
		st.Tokens[i] = strings.ToUpper(strings.TrimSpace(token))
	}
	if st.UpdateInterval <= 0 {
		st.UpdateInterval = Default().UpdateInterval
	}
	if st.Transparency < 0 {
		st.Transparency = 0
	}
	if st.Transparency > 1 {
		st.Transparency = 1
	}
	if st.FontSize <= 0 {
		st.FontSize = Default().FontSize
	}
}

// Current returns a copy of the current settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.current
	out.Tokens = append([]string(nil), s.current.Tokens...)
	return out
}

// Update replaces the settings and rewrites the file.
func (s *Store) Update(st Settings) error {
	normalize(&st)

	s.mu.Lock()
	s.current = st
	s.mu.Unlock()

	return s.save()
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.current, "", "    ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
