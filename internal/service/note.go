package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/notegen/notegen/internal/metrics"
	"github.com/notegen/notegen/internal/model"
	"github.com/notegen/notegen/internal/repository"
)

// NoteService admits note generation requests and reports their status.
type NoteService struct {
	notes    NoteStore
	profiles ProfileStore
	events   EventPublisher
	ledger   *Ledger
	logger   *slog.Logger
	metrics  metrics.Recorder
	newID    func() string
}

// NewNoteService creates a new NoteService. publisher may be nil.
func NewNoteService(notes NoteStore, profiles ProfileStore, publisher EventPublisher, ledger *Ledger, logger *slog.Logger, recorder metrics.Recorder) *NoteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &NoteService{
		notes:    notes,
		profiles: profiles,
		events:   publisher,
		ledger:   ledger,
		logger:   logger.With("component", "service.note"),
		metrics:  recorder,
		newID:    func() string { return ulid.Make().String() },
	}
}

// Submit admits a note generation request for userID.
// The quota is checked before the body is validated, so an exhausted
// subject gets QuotaExceeded even for a malformed request.
func (s *NoteService) Submit(ctx context.Context, userID string, body []byte) (*model.Note, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveAdmissionDuration(time.Since(start)) }()

	tier, err := s.tierFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := s.ledger.LimitFor(tier)
	now := s.ledger.Now()
	since := s.ledger.StartOfDay(now)

	usage, err := s.notes.CountNotesSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count usage: %w", err)
	}
	if !Admits(usage, limit) {
		return nil, s.quotaExceeded(userID, limit, usage, now)
	}

	sub, err := ParseSubmission(body)
	if err != nil {
		s.metrics.IncAdmissionRejected(metrics.RejectInvalid)
		s.logger.DebugContext(ctx, "submission rejected", "user_id", userID, "error", err)
		return nil, err
	}

	note := &model.Note{
		ID:      s.newID(),
		UserID:  userID,
		Prompt:  sub.Prompt,
		Options: sub.Options,
		Status:  model.NoteStatusPending,
	}

	// The store re-counts under a per-subject lock; a concurrent
	// submission may have used the last slot since the check above.
	usage, err = s.notes.AdmitNote(ctx, note, since, limit)
	if err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			return nil, s.quotaExceeded(userID, limit, usage, now)
		}
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.metrics.IncNoteAdmitted(string(tier))
	s.logger.InfoContext(ctx, "note admitted",
		"note_id", note.ID,
		"user_id", userID,
		"tier", tier,
		"usage", usage+1,
		"limit", limit,
	)

	at := note.CreatedAt
	if at.IsZero() {
		at = now
	}
	s.events.PublishAsync(model.NoteEvent{
		Type:   model.NoteEventCreated,
		NoteID: note.ID,
		UserID: userID,
		At:     at,
	})

	return note, nil
}

func (s *NoteService) quotaExceeded(userID string, limit, usage int, now time.Time) error {
	s.metrics.IncAdmissionRejected(metrics.RejectQuota)
	s.logger.Info("daily quota exceeded",
		"user_id", userID,
		"usage", usage,
		"limit", limit,
	)
	return &QuotaExceededError{Limit: limit, ResetAt: s.ledger.NextReset(now)}
}

// tierFor reads the quota tier of userID from the profile store on every
// admission, so a premium change applies to the next request.
// A subject with no profile yet is free.
func (s *NoteService) tierFor(ctx context.Context, userID string) (model.Tier, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return model.TierFree, nil
		}
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	return profile.Tier(), nil
}

// Status returns the caller-visible state of a note owned by userID.
func (s *NoteService) Status(ctx context.Context, userID, noteID string) (model.NoteView, error) {
	if noteID == "" {
		return model.NoteView{}, &ValidationError{Message: "Missing note ID"}
	}

	note, err := s.notes.GetNoteByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			s.metrics.IncStatusLookup(metrics.LookupNotFound)
			return model.NoteView{}, ErrNoteNotFound
		}
		return model.NoteView{}, fmt.Errorf("failed to get note: %w", err)
	}

	if !note.IsOwnedBy(userID) {
		s.metrics.IncStatusLookup(metrics.LookupForbidden)
		s.logger.WarnContext(ctx, "status lookup by non-owner", "note_id", noteID, "user_id", userID)
		return model.NoteView{}, ErrForbidden
	}

	s.metrics.IncStatusLookup(metrics.LookupFound)
	return note.View(), nil
}
