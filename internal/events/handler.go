package events

import (
	"context"
	"log/slog"

	"github.com/notegen/notegen/internal/model"
)

// Handler reacts to a single note event.
type Handler interface {
	HandleNoteEvent(ctx context.Context, event model.NoteEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event model.NoteEvent) error

// HandleNoteEvent calls f.
func (f HandlerFunc) HandleNoteEvent(ctx context.Context, event model.NoteEvent) error {
	return f(ctx, event)
}

// LogHandler writes one audit line per event.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "events.audit")}
}

// HandleNoteEvent logs the event.
func (h *LogHandler) HandleNoteEvent(ctx context.Context, event model.NoteEvent) error {
	attrs := []any{
		"note_id", event.NoteID,
		"user_id", event.UserID,
		"event_id", event.EventID,
	}

	switch event.Type {
	case model.NoteEventCreated:
		h.logger.InfoContext(ctx, "new note created by user", attrs...)
	case model.NoteEventDeleted:
		h.logger.InfoContext(ctx, "note deleted by user", append(attrs, "cause", event.Cause)...)
	}
	return nil
}
