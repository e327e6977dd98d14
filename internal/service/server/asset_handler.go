package server

import (
	"image/png"
	"net/http"
	"strconv"

	"github.com/cocktail-collective/cocktail/internal/assets"
	"go.uber.org/zap"
)

// AssetHandler serves cached image assets.
type AssetHandler struct {
	provider *assets.Provider
	logger   *zap.Logger
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(provider *assets.Provider, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{
		provider: provider,
		logger:   logger,
	}
}

// HandleImage serves the image behind the url query parameter through the
// asset cache, re-encoded as PNG. Optional blurhash, width and height
// parameters are not used for the response itself but warm the preview
// placeholder for subsequent requests. Unavailable assets return 502.
func (h *AssetHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "Missing url parameter", http.StatusBadRequest)
		return
	}

	width, _ := strconv.Atoi(r.URL.Query().Get("width"))
	height, _ := strconv.Atoi(r.URL.Query().Get("height"))

	done := make(chan *assets.Asset, 1)
	h.provider.Request(assets.Request{
		URL:      url,
		BlurHash: r.URL.Query().Get("blurhash"),
		Width:    width,
		Height:   height,
	}, func(asset *assets.Asset) {
		done <- asset
	})

	var asset *assets.Asset
	select {
	case asset = <-done:
	case <-r.Context().Done():
		return
	}

	if asset.Err != nil {
		http.Error(w, "Asset unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := png.Encode(w, asset.Image); err != nil {
		h.logger.Debug("failed to encode image", zap.String("url", url), zap.Error(err))
	}
}
