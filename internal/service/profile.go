package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/notegen/notegen/internal/metrics"
	"github.com/notegen/notegen/internal/model"
)

// ProfileService manages the profile lifecycle of a subject.
type ProfileService struct {
	profiles ProfileStore
	events   EventPublisher
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewProfileService creates a new ProfileService. publisher may be nil.
func NewProfileService(profiles ProfileStore, publisher EventPublisher, logger *slog.Logger, recorder metrics.Recorder) *ProfileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &ProfileService{
		profiles: profiles,
		events:   publisher,
		logger:   logger.With("component", "service.profile"),
		metrics:  recorder,
		now:      time.Now,
	}
}

// authorize checks that caller acts on its own account.
func authorize(caller *model.AuthContext, uid string) error {
	if uid == "" {
		return &ValidationError{Message: "Missing uid"}
	}
	if caller == nil || caller.UserID != uid {
		return ErrForbidden
	}
	return nil
}

// Create creates or refreshes the caller's profile from its verified
// identity. Premium is left untouched.
func (s *ProfileService) Create(ctx context.Context, caller *model.AuthContext, uid string) (*model.Profile, error) {
	if err := authorize(caller, uid); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.Profile{
		UserID:      uid,
		Email:       optional(caller.Email),
		DisplayName: optional(caller.DisplayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profiles.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile created", "user_id", uid)
	return p, nil
}

// Cleanup removes the caller's profile and every note it owns.
// Returns the number of notes removed.
func (s *ProfileService) Cleanup(ctx context.Context, caller *model.AuthContext, uid string) (int, error) {
	if err := authorize(caller, uid); err != nil {
		return 0, err
	}

	ids, err := s.profiles.DeleteUserData(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user data: %w", err)
	}

	at := s.now().UTC()
	deleted := make([]model.NoteEvent, 0, len(ids))
	for _, id := range ids {
		deleted = append(deleted, model.NoteEvent{
			Type:   model.NoteEventDeleted,
			NoteID: id,
			UserID: uid,
			Cause:  metrics.CauseCleanup,
			At:     at,
		})
	}
	s.events.PublishAsync(deleted...)
	s.metrics.AddNotesDeleted(metrics.CauseCleanup, len(ids))

	s.logger.InfoContext(ctx, "user data cleaned up", "user_id", uid, "notes_deleted", len(ids))
	return len(ids), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
