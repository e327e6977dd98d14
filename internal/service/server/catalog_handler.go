package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"github.com/cocktail-collective/cocktail/internal/port"
	"go.uber.org/zap"
)

// CatalogHandler serves mirrored catalog data.
type CatalogHandler struct {
	store  port.Store
	syncer Syncer
	logger *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(store port.Store, syncer Syncer, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  store,
		syncer: syncer,
		logger: logger,
	}
}

// HandleStatus reports mirror state: model count, last completed sync and
// whether a sync is currently running.
func (h *CatalogHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.store.ModelCount()
	if err != nil {
		h.logger.Error("failed to count models", zap.Error(err))
		http.Error(w, "Failed to read mirror state", http.StatusInternalServerError)
		return
	}

	lastUpdated, err := h.store.GetLastUpdated()
	if err != nil {
		h.logger.Error("failed to read last_updated", zap.Error(err))
		http.Error(w, "Failed to read mirror state", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"models":       count,
		"last_updated": lastUpdated.Format(time.RFC3339),
		"syncing":      h.syncer.Syncing(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleModels lists mirrored models. Supports category, limit and offset
// query parameters.
func (h *CatalogHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	models, err := h.store.ListModels(query.Get("category"), limit, offset)
	if err != nil {
		h.logger.Error("failed to list models", zap.Error(err))
		http.Error(w, "Failed to list models", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"models": models})
}

// HandleModel serves one model with its versions, files and images.
// The path is /models/{id}.
func (h *CatalogHandler) HandleModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/models/"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	detail, err := h.store.GetModel(id)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get model", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "Failed to get model", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}
