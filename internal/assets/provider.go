package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/buckket/go-blurhash"
	"github.com/cocktail-collective/cocktail/internal/domain"
	"go.uber.org/zap"
)

// Asset is a cached value for one URL. Exactly one of three shapes is stored:
// a preview placeholder (Preview true) admitted before the fetch completed, a
// decoded final image, or a terminal error placeholder (nil Image, non-nil
// Err) that stays until the entry is evicted.
type Asset struct {
	Image   image.Image
	Preview bool
	Err     error
}

// ProviderConfig contains asset provider configuration
type ProviderConfig struct {
	MaxEntries int
	Timeout    time.Duration
}

// DefaultProviderConfig returns default provider configuration
func DefaultProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		MaxEntries: 100,
		Timeout:    30 * time.Second,
	}
}

// Request identifies an asset to serve. BlurHash, when supplied together with
// the source dimensions, is decoded into a low-resolution preview placeholder
// that is cached while the real bytes are in flight.
type Request struct {
	URL      string
	BlurHash string
	Width    int
	Height   int
}

// Callback receives the final value for a requested asset.
type Callback func(asset *Asset)

// Provider serves binary image assets through a bounded LRU cache,
// deduplicating concurrent fetches of the same URL through an in-flight
// registry. Errors never propagate to callers as errors: they become stable
// per-key placeholder values.
type Provider struct {
	config *ProviderConfig
	client *http.Client
	logger *zap.Logger

	mu       sync.Mutex
	cache    *LRU[string, *Asset]
	inflight map[string][]Callback
}

// NewProvider creates a new Provider
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) *Provider {
	if cfg == nil {
		cfg = DefaultProviderConfig()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Provider{
		config:   cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		cache:    NewLRU[string, *Asset](cfg.MaxEntries),
		inflight: make(map[string][]Callback),
	}
}

// Get returns the cached value for url, which may be a preview or error
// placeholder. It never triggers a fetch.
func (p *Provider) Get(url string) (*Asset, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Get(url)
}

// Contains reports whether url currently has a cached value.
func (p *Provider) Contains(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Contains(url)
}

// Request serves the asset for req.URL. A cached value is delivered to
// onComplete synchronously. If a fetch for the same URL is already in flight
// the callback joins its waiter list and no second fetch is issued; otherwise
// a fetch starts and every callback registered before it completes receives
// the same final value, in registration order.
func (p *Provider) Request(req Request, onComplete Callback) {
	p.mu.Lock()

	if waiters, ok := p.inflight[req.URL]; ok {
		p.inflight[req.URL] = append(waiters, onComplete)
		p.mu.Unlock()
		return
	}

	if asset, ok := p.cache.Get(req.URL); ok {
		p.mu.Unlock()
		if onComplete != nil {
			onComplete(asset)
		}
		return
	}

	if preview := p.decodePreview(req); preview != nil {
		p.cache.Set(req.URL, &Asset{Image: preview, Preview: true})
	}

	p.inflight[req.URL] = []Callback{onComplete}
	p.mu.Unlock()

	go p.fetch(req.URL)
}

// fetch downloads and decodes one asset, stores the final value and fires the
// waiter list. Failures are terminal: the error placeholder is cached and no
// retry happens at this layer.
func (p *Provider) fetch(url string) {
	asset := p.download(url)
	if asset.Err != nil {
		p.logger.Warn("asset fetch failed", zap.String("url", url), zap.Error(asset.Err))
	}

	p.mu.Lock()
	p.cache.Set(url, asset)
	waiters := p.inflight[url]
	delete(p.inflight, url)
	p.mu.Unlock()

	for _, onComplete := range waiters {
		if onComplete != nil {
			onComplete(asset)
		}
	}
}

func (p *Provider) download(url string) *Asset {
	resp, err := p.client.Get(url)
	if err != nil {
		return &Asset{Err: fmt.Errorf("%w: %v", domain.ErrAssetUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &Asset{Err: fmt.Errorf("%w: unexpected status %s", domain.ErrAssetUnavailable, resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Asset{Err: fmt.Errorf("%w: %v", domain.ErrAssetUnavailable, err)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return &Asset{Err: fmt.Errorf("%w: decoding image: %v", domain.ErrAssetUnavailable, err)}
	}

	return &Asset{Image: img}
}

// decodePreview turns the request's blurhash blob into a small placeholder
// image. Invalid or absent hashes yield no placeholder.
func (p *Provider) decodePreview(req Request) image.Image {
	if req.BlurHash == "" || req.Width <= 0 || req.Height <= 0 {
		return nil
	}

	// Decode at a fixed small size preserving the source aspect ratio.
	width, height := previewSize(req.Width, req.Height)
	img, err := blurhash.Decode(req.BlurHash, width, height, 1)
	if err != nil {
		p.logger.Debug("invalid blurhash", zap.String("url", req.URL), zap.Error(err))
		return nil
	}
	return img
}

const previewEdge = 32

func previewSize(width, height int) (int, int) {
	if width >= height {
		return previewEdge, previewEdge * height / width
	}
	return previewEdge * width / height, previewEdge
}
