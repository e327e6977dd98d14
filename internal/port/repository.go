package port

import (
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
)

// CatalogRepository persists fetched catalog pages.
type CatalogRepository interface {
	// InsertPage writes the four entity batches of a page, each in its own
	// transaction with insert-or-replace semantics keyed by natural id.
	InsertPage(page domain.Page) error
	// ModelCount returns the number of mirrored models.
	ModelCount() (int64, error)
	// ListModels returns a page of mirrored models, newest first. An empty
	// category matches everything.
	ListModels(category string, limit, offset int) ([]domain.Model, error)
	// GetModel returns one model with its versions, files and images.
	// Returns domain.ErrNotFound when the id is not mirrored.
	GetModel(id int64) (*domain.ModelDetail, error)
}

// MetadataRepository tracks sync bookkeeping state.
type MetadataRepository interface {
	// GetLastUpdated returns the timestamp of the last completed sync run.
	// A zero time means the mirror has never completed a run.
	GetLastUpdated() (time.Time, error)
	// SetLastUpdated records t as the last completed sync run. A zero t
	// defaults to the current time.
	SetLastUpdated(t time.Time) error
}

// Store is the full local mirror surface.
type Store interface {
	CatalogRepository
	MetadataRepository
	Ping() error
	Close() error
}
