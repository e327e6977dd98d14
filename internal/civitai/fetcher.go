package civitai

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"github.com/cocktail-collective/cocktail/internal/domain/event"
	"github.com/cocktail-collective/cocktail/internal/port"
	"github.com/cocktail-collective/cocktail/internal/util/ratelimiter"
	"go.uber.org/zap"
)

// maxURLRetries is the per-URL attempt ceiling. The fifth consecutive failure
// of the same URL abandons the whole session; pages already enqueued are kept.
const maxURLRetries = 5

// FetcherConfig contains fetcher configuration
type FetcherConfig struct {
	PageLimit       int
	RequestInterval time.Duration
}

// DefaultFetcherConfig returns default fetcher configuration
func DefaultFetcherConfig() *FetcherConfig {
	return &FetcherConfig{
		PageLimit:       100,
		RequestInterval: 500 * time.Millisecond,
	}
}

// Fetcher retrieves all catalog pages for a staleness period, following the
// remote pagination links. At most one fetch session is active at a time;
// RequestData while busy is a no-op. Lifecycle is reported through the event
// dispatcher and fetched pages are buffered on an unbounded queue until the
// consumer drains them.
type Fetcher struct {
	config     *FetcherConfig
	client     *Client
	dispatcher event.Dispatcher
	limiter    *ratelimiter.Limiter
	logger     *zap.Logger

	mu         sync.Mutex
	busy       bool
	retries    map[string]int
	totalPages int

	queueMu sync.Mutex
	queue   []domain.Page
}

// Ensure Fetcher implements port.CatalogFetcher
var _ port.CatalogFetcher = (*Fetcher)(nil)

// NewFetcher creates a new Fetcher
func NewFetcher(cfg *FetcherConfig, client *Client, dispatcher event.Dispatcher, logger *zap.Logger) *Fetcher {
	if cfg == nil {
		cfg = DefaultFetcherConfig()
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100
	}
	if dispatcher == nil {
		dispatcher = event.NewNullDispatcher()
	}

	return &Fetcher{
		config:     cfg,
		client:     client,
		dispatcher: dispatcher,
		limiter:    ratelimiter.New(cfg.RequestInterval),
		logger:     logger,
		retries:    make(map[string]int),
	}
}

// Events returns the dispatcher carrying the session lifecycle events.
func (f *Fetcher) Events() event.Dispatcher {
	return f.dispatcher
}

// Busy reports whether a fetch session is in progress.
func (f *Fetcher) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// RequestData starts a fetch session for the given period. Concurrent calls
// while a session is active are ignored, not queued. Retry counters are reset
// at the start of every session.
func (f *Fetcher) RequestData(ctx context.Context, period domain.Period) bool {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return false
	}
	f.busy = true
	f.retries = make(map[string]int)
	f.totalPages = 0
	f.mu.Unlock()

	f.logger.Info("requesting model data", zap.String("period", period.String()))
	f.dispatcher.Dispatch(event.NewSyncStarted(period))

	go f.run(ctx, f.client.ModelsURL(period, f.config.PageLimit))
	return true
}

// TryDequeue pops the oldest buffered page, if any.
func (f *Fetcher) TryDequeue() (domain.Page, bool) {
	f.queueMu.Lock()
	defer f.queueMu.Unlock()

	if len(f.queue) == 0 {
		return domain.Page{}, false
	}

	page := f.queue[0]
	f.queue = f.queue[1:]
	return page, true
}

func (f *Fetcher) enqueue(page domain.Page) {
	f.queueMu.Lock()
	f.queue = append(f.queue, page)
	f.queueMu.Unlock()
}

// run is the fetch session loop. Pages are fetched, deserialized and enqueued
// strictly in pagination order.
func (f *Fetcher) run(ctx context.Context, url string) {
	for url != "" {
		if err := f.limiter.Wait(ctx); err != nil {
			f.logger.Warn("fetch session cancelled", zap.Error(err))
			f.finish(true)
			return
		}

		resp, err := f.client.GetPage(ctx, url)
		if err != nil {
			if errors.Is(err, ErrMalformedPayload) {
				// The URL answered but the body is unusable; there is no
				// pagination link to follow, so the run ends here.
				f.logger.Warn("malformed page payload", zap.String("url", url), zap.Error(err))
				f.finish(false)
				return
			}
			if ctx.Err() != nil {
				f.logger.Warn("fetch session cancelled", zap.Error(ctx.Err()))
				f.finish(true)
				return
			}
			if !f.shouldRetry(url) {
				f.logger.Warn("request failed, retries exceeded",
					zap.String("url", url), zap.Error(err))
				f.finish(true)
				return
			}
			f.logger.Debug("request failed, retrying",
				zap.String("url", url), zap.Error(err))
			continue
		}

		page := DecodePage(resp.Items, f.logger)
		f.enqueue(page)
		f.dispatcher.Dispatch(event.NewPageReady())

		f.reportProgress(resp.Metadata)

		url = resp.Metadata.NextPage
	}

	f.finish(false)
}

// shouldRetry increments the per-URL failure counter and reports whether the
// same URL may be issued again.
func (f *Fetcher) shouldRetry(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.retries[url]++
	return f.retries[url] < maxURLRetries
}

func (f *Fetcher) finish(abandoned bool) {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()

	f.dispatcher.Dispatch(event.NewSyncEnded(abandoned))
}

// reportProgress derives (completed, total) from whichever pagination scheme
// the response carries. Two incompatible schemes exist across API versions:
// explicit currentPage/totalPages fields, and a cursor whose first element
// counts the remaining pages. Progress is best-effort; anomalies are logged
// and the emission skipped without failing the run.
func (f *Fetcher) reportProgress(md PageMetadata) {
	completed, total, ok := f.progressFromMetadata(md)
	if !ok {
		f.logger.Warn("failed to detect pagination progress")
		return
	}

	f.logger.Info("model page", zap.Int("completed", completed), zap.Int("total", total))
	f.dispatcher.Dispatch(event.NewSyncProgress(completed, total))
}

func (f *Fetcher) progressFromMetadata(md PageMetadata) (completed, total int, ok bool) {
	if md.TotalPages > 0 && md.CurrentPage > 0 {
		return md.CurrentPage, md.TotalPages, true
	}

	if md.NextCursor == "" {
		return 0, 0, false
	}

	remaining, err := strconv.Atoi(strings.SplitN(md.NextCursor, "|", 2)[0])
	if err != nil {
		return 0, 0, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// The first cursor of a session fixes the total page count.
	if f.totalPages == 0 {
		f.totalPages = remaining
	}

	return f.totalPages - remaining, f.totalPages, true
}
