package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"github.com/cocktail-collective/cocktail/internal/domain/event"
	"github.com/cocktail-collective/cocktail/internal/port"
	"go.uber.org/zap"
)

// Config contains syncer configuration
type Config struct {
	// SyncInterval is the pause between periodic resync attempts.
	SyncInterval time.Duration
}

// DefaultConfig returns default syncer configuration
func DefaultConfig() *Config {
	return &Config{
		SyncInterval: time.Hour,
	}
}

// Syncer keeps the local mirror current. Each run asks the staleness policy
// for a refresh window, streams the resulting pages into the store, and
// stamps last_updated once when the run completes cleanly. Abandoned runs
// keep their partial pages but leave the stamp untouched so the next run
// widens its window.
type Syncer struct {
	config  *Config
	fetcher port.CatalogFetcher
	store   port.Store
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
	cancel  context.CancelFunc
}

// New creates a new Syncer
func New(cfg *Config, fetcher port.CatalogFetcher, store port.Store, logger *zap.Logger) *Syncer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = time.Hour
	}

	return &Syncer{
		config:  cfg,
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// Start runs an immediate sync and then resyncs periodically until the
// context is cancelled.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("syncer already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("syncer started",
		zap.Duration("sync_interval", s.config.SyncInterval))

	if err := s.Sync(ctx); err != nil {
		s.logger.Error("initial sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("syncer stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.Error("sync failed", zap.Error(err))
			}
		}
	}
}

// Stop stops the syncer
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
}

// Syncing reports whether a fetch session is currently active.
func (s *Syncer) Syncing() bool {
	return s.fetcher.Busy()
}

// LastRun returns when the last clean sync run finished in this process.
func (s *Syncer) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Sync performs one full sync run and blocks until the fetch session ends.
// Pages are upserted in fetch order as they become ready. Returns
// domain.ErrSyncInProgress when a session is already active.
func (s *Syncer) Sync(ctx context.Context) error {
	lastUpdated, err := s.store.GetLastUpdated()
	if err != nil {
		return fmt.Errorf("reading last_updated: %w", err)
	}

	// Refuse before subscribing: a handler registered for a run that will be
	// rejected would drain pages belonging to the active session.
	if s.fetcher.Busy() {
		return domain.ErrSyncInProgress
	}

	period := domain.PeriodSince(lastUpdated, time.Now())
	s.logger.Info("starting sync",
		zap.String("period", period.String()),
		zap.Time("last_updated", lastUpdated))
	start := time.Now()

	var (
		insertErr error
		pageCount int
	)
	ended := make(chan bool, 1)

	// Draining synchronously from the PageReady handler keeps upserts in
	// strict fetch order: the handler runs in the fetch session goroutine
	// before the next page is requested.
	pageHandler := &event.HandlerFunc{
		Events: []string{event.PageReady{}.EventName()},
		Fn: func(event.DomainEvent) error {
			if insertErr != nil {
				return nil
			}
			insertErr = s.drain()
			pageCount++
			return nil
		},
	}
	endHandler := &event.HandlerFunc{
		Events: []string{event.SyncEnded{}.EventName()},
		Fn: func(e event.DomainEvent) error {
			ended <- e.(event.SyncEnded).Abandoned
			return nil
		},
	}

	dispatcher := s.fetcher.Events()
	dispatcher.Subscribe(pageHandler)
	dispatcher.Subscribe(endHandler)
	defer dispatcher.Unsubscribe(pageHandler)
	defer dispatcher.Unsubscribe(endHandler)

	if !s.fetcher.RequestData(ctx, period) {
		return domain.ErrSyncInProgress
	}

	var abandoned bool
	select {
	case abandoned = <-ended:
	case <-ctx.Done():
		return ctx.Err()
	}

	if insertErr != nil {
		return fmt.Errorf("storing pages: %w", insertErr)
	}
	if abandoned {
		return domain.ErrSyncAbandoned
	}

	if err := s.store.SetLastUpdated(time.Time{}); err != nil {
		return fmt.Errorf("stamping last_updated: %w", err)
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	s.logger.Info("sync completed",
		zap.Int("pages", pageCount),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// drain upserts every buffered page.
func (s *Syncer) drain() error {
	for {
		page, ok := s.fetcher.TryDequeue()
		if !ok {
			return nil
		}
		if err := s.store.InsertPage(page); err != nil {
			return err
		}
	}
}
