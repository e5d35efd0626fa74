package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/notegen/notegen/internal/model"
	"github.com/notegen/notegen/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory NoteStore, ProfileStore and ExpiryStore.
type fakeStore struct {
	mu       sync.Mutex
	now      func() time.Time
	notes    map[string]*model.Note
	profiles map[string]*model.Profile

	profileReads int
	writes       int
	countErr     error
	admitErr     error
	getErr       error
	deleteErr    error
	lastCutoff   time.Time
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		now:      now,
		notes:    map[string]*model.Note{},
		profiles: map[string]*model.Profile{},
	}
}

func (f *fakeStore) CountNotesSince(_ context.Context, userID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.countLocked(userID, since), nil
}

func (f *fakeStore) countLocked(userID string, since time.Time) int {
	n := 0
	for _, note := range f.notes {
		if note.UserID == userID && !note.CreatedAt.Before(since) {
			n++
		}
	}
	return n
}

func (f *fakeStore) AdmitNote(_ context.Context, note *model.Note, since time.Time, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	usage := f.countLocked(note.UserID, since)
	if f.admitErr != nil {
		return usage, f.admitErr
	}
	if usage >= limit {
		return usage, repository.ErrQuotaExceeded
	}
	note.CreatedAt = f.now()
	cp := *note
	f.notes[note.ID] = &cp
	f.writes++
	return usage, nil
}

func (f *fakeStore) GetNoteByID(_ context.Context, id string) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	note, ok := f.notes[id]
	if !ok {
		return nil, repository.ErrNoteNotFound
	}
	cp := *note
	return &cp, nil
}

func (f *fakeStore) put(note *model.Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *note
	f.notes[note.ID] = &cp
}

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileReads++
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpsertProfile(_ context.Context, p *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
		p.Premium = existing.Premium
	}
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

func (f *fakeStore) DeleteUserData(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.profiles, userID)
	var ids []string
	for id, note := range f.notes {
		if note.UserID == userID {
			ids = append(ids, id)
			delete(f.notes, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) DeleteArchivedNotesBefore(_ context.Context, cutoff time.Time) ([]repository.DeletedNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCutoff = cutoff
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	var out []repository.DeletedNote
	for id, note := range f.notes {
		if note.Archived && note.CreatedAt.Before(cutoff) {
			out = append(out, repository.DeletedNote{ID: id, UserID: note.UserID})
			delete(f.notes, id)
		}
	}
	return out, nil
}

// fakePublisher records published events synchronously.
type fakePublisher struct {
	mu     sync.Mutex
	events []model.NoteEvent
}

func (p *fakePublisher) PublishAsync(events ...model.NoteEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *fakePublisher) published() []model.NoteEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.NoteEvent(nil), p.events...)
}
