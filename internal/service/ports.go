package service

import (
	"context"
	"time"

	"github.com/notegen/notegen/internal/model"
	"github.com/notegen/notegen/internal/repository"
)

// NoteStore persists notes. Implemented by *repository.Repository.
type NoteStore interface {
	CountNotesSince(ctx context.Context, userID string, since time.Time) (int, error)
	AdmitNote(ctx context.Context, note *model.Note, since time.Time, limit int) (int, error)
	GetNoteByID(ctx context.Context, id string) (*model.Note, error)
}

// ProfileStore persists profiles. Implemented by *repository.Repository.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, p *model.Profile) error
	DeleteUserData(ctx context.Context, userID string) ([]string, error)
}

// ExpiryStore removes expired notes. Implemented by *repository.Repository.
type ExpiryStore interface {
	DeleteArchivedNotesBefore(ctx context.Context, cutoff time.Time) ([]repository.DeletedNote, error)
}

// EventPublisher emits note lifecycle events. Implemented by *events.Publisher.
type EventPublisher interface {
	PublishAsync(events ...model.NoteEvent)
}

type noopPublisher struct{}

func (noopPublisher) PublishAsync(...model.NoteEvent) {}
