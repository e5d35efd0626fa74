package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	NotesAdmitted      map[string]uint64
	AdmissionsRejected map[string]uint64
	AdmissionCount     uint64
	StatusLookups      map[string]uint64
	NotesDeleted       map[string]uint64
	ExpiryRuns         map[string]uint64
	EventsPublished    map[string]uint64
	EventsProcessed    map[string]uint64
	EventQueueDepth    int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{snap: Snapshot{
		NotesAdmitted:      map[string]uint64{},
		AdmissionsRejected: map[string]uint64{},
		StatusLookups:      map[string]uint64{},
		NotesDeleted:       map[string]uint64{},
		ExpiryRuns:         map[string]uint64{},
		EventsPublished:    map[string]uint64{},
		EventsProcessed:    map[string]uint64{},
	}}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.snap
	s.NotesAdmitted = copyCounts(m.snap.NotesAdmitted)
	s.AdmissionsRejected = copyCounts(m.snap.AdmissionsRejected)
	s.StatusLookups = copyCounts(m.snap.StatusLookups)
	s.NotesDeleted = copyCounts(m.snap.NotesDeleted)
	s.ExpiryRuns = copyCounts(m.snap.ExpiryRuns)
	s.EventsPublished = copyCounts(m.snap.EventsPublished)
	s.EventsProcessed = copyCounts(m.snap.EventsProcessed)
	return s
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *InMemoryRecorder) add(counts map[string]uint64, label string, n uint64) {
	m.mu.Lock()
	counts[label] += n
	m.mu.Unlock()
}

// IncNoteAdmitted increments the admitted counter for a tier.
func (m *InMemoryRecorder) IncNoteAdmitted(tier string) {
	m.add(m.snap.NotesAdmitted, tier, 1)
}

// IncAdmissionRejected increments the rejection counter for a reason.
func (m *InMemoryRecorder) IncAdmissionRejected(reason string) {
	m.add(m.snap.AdmissionsRejected, reason, 1)
}

// ObserveAdmissionDuration counts timed admissions.
func (m *InMemoryRecorder) ObserveAdmissionDuration(time.Duration) {
	m.mu.Lock()
	m.snap.AdmissionCount++
	m.mu.Unlock()
}

// IncStatusLookup increments the lookup counter for a result.
func (m *InMemoryRecorder) IncStatusLookup(result string) {
	m.add(m.snap.StatusLookups, result, 1)
}

// AddNotesDeleted adds n deletions for a cause.
func (m *InMemoryRecorder) AddNotesDeleted(cause string, n int) {
	if n <= 0 {
		return
	}
	m.add(m.snap.NotesDeleted, cause, uint64(n))
}

// IncExpiryRun increments the expiry run counter.
func (m *InMemoryRecorder) IncExpiryRun(status string) {
	m.add(m.snap.ExpiryRuns, status, 1)
}

// IncNoteEventPublished increments the published event counter.
func (m *InMemoryRecorder) IncNoteEventPublished(status string) {
	m.add(m.snap.EventsPublished, status, 1)
}

// IncNoteEventProcessed increments the processed event counter.
func (m *InMemoryRecorder) IncNoteEventProcessed(status string) {
	m.add(m.snap.EventsProcessed, status, 1)
}

// SetNoteEventQueueDepth records the pending message count.
func (m *InMemoryRecorder) SetNoteEventQueueDepth(depth int64) {
	m.mu.Lock()
	m.snap.EventQueueDepth = depth
	m.mu.Unlock()
}
