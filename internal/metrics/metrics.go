// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Label values shared by recorders and callers.
const (
	RejectQuota   = "quota_exceeded"
	RejectInvalid = "invalid_request"

	LookupFound     = "found"
	LookupNotFound  = "not_found"
	LookupForbidden = "forbidden"

	CauseExpiry  = "expiry"
	CauseCleanup = "cleanup"

	StatusSuccess    = "success"
	StatusDropped    = "dropped"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
	StatusDeadLetter = "dead_letter"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Admission metrics
	IncNoteAdmitted(tier string)
	IncAdmissionRejected(reason string)
	ObserveAdmissionDuration(duration time.Duration)

	// Status lookup metrics
	IncStatusLookup(result string)

	// Deletions by cause (expiry or cleanup)
	AddNotesDeleted(cause string, n int)
	IncExpiryRun(status string)

	// Note event pipeline
	IncNoteEventPublished(status string) // status: "success" or "dropped"
	IncNoteEventProcessed(status string) // status: "success", "skipped", "dead_letter"
	SetNoteEventQueueDepth(depth int64)
}
