package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncNoteAdmitted(tier string)                     {}
func (n *NoopRecorder) IncAdmissionRejected(reason string)              {}
func (n *NoopRecorder) ObserveAdmissionDuration(duration time.Duration) {}
func (n *NoopRecorder) IncStatusLookup(result string)                   {}
func (n *NoopRecorder) AddNotesDeleted(cause string, count int)         {}
func (n *NoopRecorder) IncExpiryRun(status string)                      {}
func (n *NoopRecorder) IncNoteEventPublished(status string)             {}
func (n *NoopRecorder) IncNoteEventProcessed(status string)             {}
func (n *NoopRecorder) SetNoteEventQueueDepth(depth int64)              {}
