package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notegen/notegen/internal/auth"
	"github.com/notegen/notegen/internal/handler/dto"
	"github.com/notegen/notegen/internal/model"
)

// ProfileService runs the account lifecycle hooks.
type ProfileService interface {
	Create(ctx context.Context, caller *model.AuthContext, uid string) (*model.Profile, error)
	Cleanup(ctx context.Context, caller *model.AuthContext, uid string) (int, error)
}

// ProfileHandler handles the account lifecycle endpoints.
type ProfileHandler struct {
	svc    ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc:    svc,
		logger: logger.With("component", "handler.profile"),
	}
}

// CreateUserProfile handles POST /v1/createUserProfile.
func (h *ProfileHandler) CreateUserProfile(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.Create(r.Context(), auth.AuthFromContext(r.Context()), req.UID); err != nil {
		writeServiceError(w, r, h.logger, err, "Error creating user profile")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// CleanupUserData handles POST /v1/cleanupUserData.
func (h *ProfileHandler) CleanupUserData(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.Cleanup(r.Context(), auth.AuthFromContext(r.Context()), req.UID); err != nil {
		writeServiceError(w, r, h.logger, err, "Error cleaning up user data")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *ProfileHandler) decode(w http.ResponseWriter, r *http.Request) (dto.ProfileRequest, bool) {
	var req dto.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body")
		return req, false
	}
	return req, true
}
