package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/notegen/notegen/internal/metrics"
	"github.com/notegen/notegen/internal/model"
)

// DefaultRetention is how long archived notes are kept.
const DefaultRetention = 30 * 24 * time.Hour

// ExpiryService deletes archived notes past the retention window.
type ExpiryService struct {
	store     ExpiryStore
	events    EventPublisher
	retention time.Duration
	logger    *slog.Logger
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewExpiryService creates a new ExpiryService. publisher may be nil.
func NewExpiryService(store ExpiryStore, publisher EventPublisher, retention time.Duration, logger *slog.Logger, recorder metrics.Recorder) *ExpiryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &ExpiryService{
		store:     store,
		events:    publisher,
		retention: retention,
		logger:    logger.With("component", "service.expiry"),
		metrics:   recorder,
		now:       time.Now,
	}
}

// Run deletes, in one batch, every archived note created before
// now minus the retention. A failure aborts the whole batch.
func (s *ExpiryService) Run(ctx context.Context) (int, error) {
	now := s.now().UTC()
	cutoff := now.Add(-s.retention)

	deleted, err := s.store.DeleteArchivedNotesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notes: %w", err)
	}

	evts := make([]model.NoteEvent, 0, len(deleted))
	for _, d := range deleted {
		evts = append(evts, model.NoteEvent{
			Type:   model.NoteEventDeleted,
			NoteID: d.ID,
			UserID: d.UserID,
			Cause:  metrics.CauseExpiry,
			At:     now,
		})
	}
	s.events.PublishAsync(evts...)
	s.metrics.AddNotesDeleted(metrics.CauseExpiry, len(deleted))

	s.logger.InfoContext(ctx, "expired notes deleted", "count", len(deleted), "cutoff", cutoff)
	return len(deleted), nil
}
