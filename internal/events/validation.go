package events

import (
	"errors"

	"github.com/notegen/notegen/internal/model"
)

// ValidatePayload checks a decoded stream payload.
func ValidatePayload(p Payload) error {
	switch model.NoteEventType(p.Type) {
	case model.NoteEventCreated, model.NoteEventDeleted:
	default:
		return errors.New("unknown event type")
	}
	if p.NoteID == "" {
		return errors.New("note id is required")
	}
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	if p.At <= 0 {
		return errors.New("timestamp must be set")
	}
	return nil
}
