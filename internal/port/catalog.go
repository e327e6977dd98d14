package port

import (
	"context"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"github.com/cocktail-collective/cocktail/internal/domain/event"
)

// CatalogFetcher drives a paginated fetch session against the remote catalog.
type CatalogFetcher interface {
	// RequestData starts a fetch session for the given period. Returns false
	// without side effects if a session is already in progress.
	RequestData(ctx context.Context, period domain.Period) bool
	// TryDequeue pops the oldest buffered page, if any.
	TryDequeue() (domain.Page, bool)
	// Busy reports whether a fetch session is in progress.
	Busy() bool
	// Events returns the dispatcher carrying the session lifecycle events.
	Events() event.Dispatcher
}
