package model

import (
	"encoding/json"
	"time"
)

// NoteStatus is the processing state of a generation request.
// pending moves to done or error; both are terminal.
type NoteStatus string

const (
	NoteStatusPending NoteStatus = "pending"
	NoteStatusDone    NoteStatus = "done"
	NoteStatusError   NoteStatus = "error"
)

// IsValid checks if the status is one of the known states.
func (s NoteStatus) IsValid() bool {
	switch s {
	case NoteStatusPending, NoteStatusDone, NoteStatusError:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can happen.
func (s NoteStatus) IsTerminal() bool {
	return s == NoteStatusDone || s == NoteStatusError
}

// Note represents a single note generation request and its outcome.
type Note struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Prompt    string          `json:"prompt"`
	Options   json.RawMessage `json:"options"`
	Status    NoteStatus      `json:"status"`
	Content   *string         `json:"content,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Archived  bool            `json:"archived"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsOwnedBy returns true if the note belongs to the given subject.
func (n *Note) IsOwnedBy(userID string) bool {
	return n.UserID == userID
}

// NoteView is the caller-visible state of a note.
// Content is only set for done notes and Error only for failed ones.
type NoteView struct {
	Status  NoteStatus
	Content *string
	Error   *string
}

// View projects the note into its caller-visible state.
func (n *Note) View() NoteView {
	v := NoteView{Status: n.Status}
	switch n.Status {
	case NoteStatusDone:
		v.Content = n.Content
	case NoteStatusError:
		v.Error = n.Error
	}
	return v
}

// NoteEventType identifies a note lifecycle event.
type NoteEventType string

const (
	NoteEventCreated NoteEventType = "note.created"
	NoteEventDeleted NoteEventType = "note.deleted"
)

// NoteEvent is published to the note event stream after a commit.
type NoteEvent struct {
	EventID string        `json:"event_id"` // Redis stream ID, set by the consumer
	Type    NoteEventType `json:"type"`
	NoteID  string        `json:"note_id"`
	UserID  string        `json:"user_id"`
	Cause   string        `json:"cause,omitempty"` // expiry or cleanup for deletions
	At      time.Time     `json:"at"`
}
