// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/notegen/notegen/internal/model"
)

// ResetTimeLayout renders quota reset instants as UTC ISO-8601 with milliseconds.
const ResetTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// GenerateNoteResponse acknowledges an admitted note request.
type GenerateNoteResponse struct {
	NoteID  string `json:"noteId"`
	Message string `json:"message"`
}

// NoteStatusResponse is the caller-visible state of a note.
type NoteStatusResponse struct {
	Status  model.NoteStatus `json:"status"`
	Content *string          `json:"content,omitempty"`
	Error   *string          `json:"error,omitempty"`
}

// ToNoteStatusResponse converts a note view to its response.
func ToNoteStatusResponse(v model.NoteView) NoteStatusResponse {
	return NoteStatusResponse{
		Status:  v.Status,
		Content: v.Content,
		Error:   v.Error,
	}
}

// QuotaExceededResponse is returned with 429 when the daily quota is spent.
type QuotaExceededResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Limit     int    `json:"limit"`
	ResetTime string `json:"resetTime"`
}

// NewQuotaExceededResponse builds the 429 body for limit and resetAt.
func NewQuotaExceededResponse(limit int, resetAt time.Time) QuotaExceededResponse {
	return QuotaExceededResponse{
		Error:     "Rate limit exceeded",
		Code:      "QUOTA_EXCEEDED",
		Limit:     limit,
		ResetTime: resetAt.UTC().Format(ResetTimeLayout),
	}
}

// ProfileRequest is the body of the profile lifecycle calls.
type ProfileRequest struct {
	UID string `json:"uid"`
}

// SuccessResponse acknowledges a profile lifecycle call.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
