package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"github.com/cocktail-collective/cocktail/internal/port"
)

type stubStore struct {
	models      []domain.Model
	detail      *domain.ModelDetail
	lastUpdated time.Time
	pingErr     error
}

func (s *stubStore) InsertPage(page domain.Page) error { return nil }

func (s *stubStore) ModelCount() (int64, error) { return int64(len(s.models)), nil }

func (s *stubStore) ListModels(category string, limit, offset int) ([]domain.Model, error) {
	if category == "" {
		return s.models, nil
	}
	var filtered []domain.Model
	for _, m := range s.models {
		if m.Category == category {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (s *stubStore) GetModel(id int64) (*domain.ModelDetail, error) {
	if s.detail == nil || s.detail.Model.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.detail, nil
}

func (s *stubStore) GetLastUpdated() (time.Time, error) { return s.lastUpdated, nil }
func (s *stubStore) SetLastUpdated(t time.Time) error   { return nil }
func (s *stubStore) Ping() error                        { return s.pingErr }
func (s *stubStore) Close() error                       { return nil }

var _ port.Store = (*stubStore)(nil)

type stubSyncer struct {
	syncing bool
	lastRun time.Time
	synced  int
}

func (s *stubSyncer) Sync(ctx context.Context) error { s.synced++; return nil }
func (s *stubSyncer) Syncing() bool                  { return s.syncing }
func (s *stubSyncer) LastRun() time.Time             { return s.lastRun }

func TestServer_Health(t *testing.T) {
	srv := New(nil, &stubStore{}, nil, &stubSyncer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestServer_HealthMethodNotAllowed(t *testing.T) {
	srv := New(nil, &stubStore{}, nil, &stubSyncer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestCatalogHandler_Status(t *testing.T) {
	store := &stubStore{
		models:      []domain.Model{{ID: 1}},
		lastUpdated: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	handler := NewCatalogHandler(store, &stubSyncer{syncing: true}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Models      int64  `json:"models"`
		LastUpdated string `json:"last_updated"`
		Syncing     bool   `json:"syncing"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Models != 1 {
		t.Errorf("models = %d, want 1", body.Models)
	}
	if !body.Syncing {
		t.Error("syncing = false, want true")
	}
	if body.LastUpdated != "2024-03-01T12:00:00Z" {
		t.Errorf("last_updated = %q", body.LastUpdated)
	}
}

func TestCatalogHandler_Models(t *testing.T) {
	store := &stubStore{models: []domain.Model{
		{ID: 1, Category: "style"},
		{ID: 2, Category: "character"},
	}}
	handler := NewCatalogHandler(store, &stubSyncer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleModels(rec, httptest.NewRequest(http.MethodGet, "/models?category=style", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Models []domain.Model `json:"models"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Models) != 1 || body.Models[0].ID != 1 {
		t.Errorf("models = %+v, want single model 1", body.Models)
	}
}

func TestCatalogHandler_Model(t *testing.T) {
	store := &stubStore{detail: &domain.ModelDetail{
		Model:    domain.Model{ID: 7, Name: "Test"},
		Versions: []domain.ModelVersion{{ID: 70, ModelID: 7}},
	}}
	handler := NewCatalogHandler(store, &stubSyncer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleModel(rec, httptest.NewRequest(http.MethodGet, "/models/7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var detail domain.ModelDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if detail.Model.Name != "Test" || len(detail.Versions) != 1 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestCatalogHandler_ModelNotFound(t *testing.T) {
	handler := NewCatalogHandler(&stubStore{}, &stubSyncer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleModel(rec, httptest.NewRequest(http.MethodGet, "/models/999", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCatalogHandler_ModelBadID(t *testing.T) {
	handler := NewCatalogHandler(&stubStore{}, &stubSyncer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleModel(rec, httptest.NewRequest(http.MethodGet, "/models/abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAdminHandler_SyncConflictWhileRunning(t *testing.T) {
	handler := NewAdminHandler(&stubSyncer{syncing: true}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleSync(rec, httptest.NewRequest(http.MethodPost, "/admin/sync", nil))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestAdminHandler_SyncAccepted(t *testing.T) {
	handler := NewAdminHandler(&stubSyncer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleSync(rec, httptest.NewRequest(http.MethodPost, "/admin/sync", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	wrapped := LoggingMiddleware(zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestBasicAuthMiddleware(t *testing.T) {
	protected := BasicAuthMiddleware("admin", "secret", zap.NewNop())(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	tests := []struct {
		name     string
		user     string
		pass     string
		withAuth bool
		want     int
	}{
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"wrong password", "admin", "nope", true, http.StatusUnauthorized},
		{"wrong user", "root", "secret", true, http.StatusUnauthorized},
		{"valid credentials", "admin", "secret", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/sync", nil)
			if tt.withAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			protected(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
