package event

import (
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// SyncStarted is raised when a catalog fetch session begins.
type SyncStarted struct {
	BaseEvent
	Period domain.Period
}

// EventName returns the event name
func (e SyncStarted) EventName() string {
	return "sync.started"
}

// NewSyncStarted creates a new SyncStarted event
func NewSyncStarted(period domain.Period) SyncStarted {
	return SyncStarted{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Period:    period,
	}
}

// PageReady is raised after a fetched page has been deserialized and enqueued
// for the consumer. Consumers that drain the queue synchronously from their
// handler preserve strict page order relative to the fetch loop.
type PageReady struct {
	BaseEvent
}

// EventName returns the event name
func (e PageReady) EventName() string {
	return "sync.page_ready"
}

// NewPageReady creates a new PageReady event
func NewPageReady() PageReady {
	return PageReady{BaseEvent: BaseEvent{Timestamp: time.Now()}}
}

// SyncProgress reports best-effort pagination progress. Total may be zero when
// the remote pagination metadata was malformed; the numbers are informational
// only and never authoritative.
type SyncProgress struct {
	BaseEvent
	Completed int
	Total     int
}

// EventName returns the event name
func (e SyncProgress) EventName() string {
	return "sync.progress"
}

// NewSyncProgress creates a new SyncProgress event
func NewSyncProgress(completed, total int) SyncProgress {
	return SyncProgress{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Completed: completed,
		Total:     total,
	}
}

// SyncEnded is raised when a fetch session finishes, either because the last
// page was reached or because the retry ceiling was hit. Pages enqueued before
// an abandoned run are kept.
type SyncEnded struct {
	BaseEvent
	Abandoned bool
}

// EventName returns the event name
func (e SyncEnded) EventName() string {
	return "sync.ended"
}

// NewSyncEnded creates a new SyncEnded event
func NewSyncEnded(abandoned bool) SyncEnded {
	return SyncEnded{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Abandoned: abandoned,
	}
}
