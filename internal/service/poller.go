package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crypto_tracker/internal/domain"
	"crypto_tracker/internal/infra"
	"crypto_tracker/internal/infra/rates"
	"crypto_tracker/internal/infra/sources"
	"crypto_tracker/internal/infra/storage"
	"crypto_tracker/internal/settings"
)

// Poller drives the periodic update cycle: acquire a session, refresh the
// rate table, resolve every configured token, convert into the display
// currency, publish a snapshot and append history. Display clients only ever
// see the snapshot channel; the poller knows nothing about presentation.
type Poller struct {
	settings   *settings.Store
	rates      *rates.Store
	store      *storage.Storage // optional; nil disables history
	aggregator sources.Source
	exchanges  []sources.Source
	timeout    time.Duration

	snapshots chan domain.Snapshot
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewPoller wires a poller from its collaborators. store may be nil.
func NewPoller(st *settings.Store, rateStore *rates.Store, store *storage.Storage, aggregator sources.Source, exchanges []sources.Source, timeout time.Duration) *Poller {
	return &Poller{
		settings:   st,
		rates:      rateStore,
		store:      store,
		aggregator: aggregator,
		exchanges:  exchanges,
		timeout:    timeout,
		snapshots:  make(chan domain.Snapshot, 16),
	}
}

// Snapshots returns the channel snapshots are published on. Slow consumers
// never stall a cycle: when the buffer is full the snapshot is dropped.
func (p *Poller) Snapshots() <-chan domain.Snapshot {
	return p.snapshots
}

// Start runs an immediate cycle and then ticks at the configured interval.
// Interval changes in the settings take effect on the next tick.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("poller panic recovered", slog.Any("panic", r))
			}
		}()

		p.RunOnce(ctx)

		interval := p.interval()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("poller stopped")
				return
			case <-ticker.C:
				p.RunOnce(ctx)
				if next := p.interval(); next != interval {
					interval = next
					ticker.Reset(interval)
				}
			}
		}
	}()

	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to finish.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}

func (p *Poller) interval() time.Duration {
	return time.Duration(p.settings.Current().UpdateInterval) * time.Second
}

// RunOnce performs a single update cycle. The session is scoped to the
// cycle: acquired on entry, released on every exit path.
func (p *Poller) RunOnce(ctx context.Context) {
	started := time.Now()

	session := infra.NewSession(p.timeout)
	defer session.Close()

	// Rates refresh precedes resolution so conversion never races a write.
	p.rates.Refresh(ctx, session)

	st := p.settings.Current()
	resolver := NewResolver(session, p.aggregator, p.exchanges)
	quotes := resolver.ResolveMany(ctx, st.Tokens)

	snapshot := p.buildSnapshot(st, quotes)
	p.publish(snapshot)
	p.persist(quotes)

	infra.GlobalMetrics.SetLastCycleDuration(time.Since(started))
	slog.Info("update cycle finished",
		slog.Int("tokens", len(st.Tokens)),
		slog.Duration("took", time.Since(started)),
	)
}

// buildSnapshot converts resolved quotes into the display currency,
// preserving the configured token order. Unresolved tokens render the
// placeholder.
func (p *Poller) buildSnapshot(st settings.Settings, quotes map[string]domain.Quote) domain.Snapshot {
	snapshot := domain.Snapshot{
		At:       time.Now(),
		Currency: st.Currency,
		Quotes:   make([]domain.Quote, 0, len(st.Tokens)),
		Entries:  make([]domain.DisplayEntry, 0, len(st.Tokens)),
	}

	seen := make(map[string]bool, len(st.Tokens))
	for _, symbol := range st.Tokens {
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		quote := quotes[symbol]
		snapshot.Quotes = append(snapshot.Quotes, quote)

		entry := domain.DisplayEntry{Symbol: symbol, Text: domain.UnavailablePlaceholder}
		if quote.Resolved() {
			converted := p.rates.Convert(*quote.PriceUSD, st.Currency)
			entry.Text = domain.FormatPrice(converted, st.Currency)
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}

	return snapshot
}

func (p *Poller) publish(snapshot domain.Snapshot) {
	select {
	case p.snapshots <- snapshot:
	default:
		slog.Warn("snapshot channel full, dropping snapshot")
	}
}

func (p *Poller) persist(quotes map[string]domain.Quote) {
	if p.store == nil {
		return
	}
	for _, quote := range quotes {
		if !quote.Resolved() {
			continue
		}
		record := &domain.QuoteRecord{
			Symbol:    quote.Symbol,
			PriceUSD:  *quote.PriceUSD,
			Source:    quote.Source,
			FetchedAt: quote.FetchedAt,
		}
		if err := p.store.AppendQuote(record); err != nil {
			slog.Error("failed to append quote history", slog.String("symbol", quote.Symbol), slog.Any("error", err))
		}
	}
}
