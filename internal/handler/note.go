package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/notegen/notegen/internal/auth"
	"github.com/notegen/notegen/internal/handler/dto"
	"github.com/notegen/notegen/internal/model"
)

const generateAcceptedMessage = "Note generation request received"

// NoteService admits note requests and reports their status.
type NoteService interface {
	Submit(ctx context.Context, userID string, body []byte) (*model.Note, error)
	Status(ctx context.Context, userID, noteID string) (model.NoteView, error)
}

// NoteHandler handles HTTP requests for note operations.
type NoteHandler struct {
	svc    NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(svc NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		svc:    svc,
		logger: logger.With("component", "handler.note"),
	}
}

// Generate handles POST /v1/generateNote.
func (h *NoteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Internal server error")
		return
	}

	note, err := h.svc.Submit(r.Context(), auth.UserIDFromContext(r.Context()), body)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dto.GenerateNoteResponse{
		NoteID:  note.ID,
		Message: generateAcceptedMessage,
	})
}

// Status handles GET /v1/getNoteStatus?noteId=.
func (h *NoteHandler) Status(w http.ResponseWriter, r *http.Request) {
	noteID := r.URL.Query().Get("noteId")

	view, err := h.svc.Status(r.Context(), auth.UserIDFromContext(r.Context()), noteID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToNoteStatusResponse(view))
}
