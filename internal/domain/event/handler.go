package event

import (
	"go.uber.org/zap"
)

// LoggingHandler logs all events
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs the event
func (h *LoggingHandler) Handle(event DomainEvent) error {
	switch e := event.(type) {
	case SyncStarted:
		h.logger.Info("sync started",
			zap.String("period", e.Period.String()),
		)
	case PageReady:
		h.logger.Debug("page ready")
	case SyncProgress:
		h.logger.Info("sync progress",
			zap.Int("completed", e.Completed),
			zap.Int("total", e.Total),
		)
	case SyncEnded:
		h.logger.Info("sync ended",
			zap.Bool("abandoned", e.Abandoned),
		)
	default:
		h.logger.Debug("domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *LoggingHandler) HandledEvents() []string {
	return []string{"*"} // Handle all events
}
