package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"go.uber.org/zap"
)

// AdminHandler handles administrative requests
type AdminHandler struct {
	syncer Syncer
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(syncer Syncer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		syncer: syncer,
		logger: logger,
	}
}

// HandleSync triggers a sync run out of the regular schedule. Returns 409 when
// a run is already active. The run itself proceeds in the background.
func (h *AdminHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.syncer.Syncing() {
		http.Error(w, "Sync already in progress", http.StatusConflict)
		return
	}

	go func() {
		if err := h.syncer.Sync(context.Background()); err != nil && !errors.Is(err, domain.ErrSyncInProgress) {
			h.logger.Error("manual sync failed", zap.Error(err))
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "sync started"})
}
