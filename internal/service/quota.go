package service

import (
	"time"

	"github.com/notegen/notegen/internal/model"
)

// Default daily limits per tier.
const (
	DefaultFreeDailyLimit    = 60
	DefaultPremiumDailyLimit = 180
)

// Ledger holds the daily quota policy: limits per tier and the calendar
// whose midnight resets usage.
type Ledger struct {
	limits   map[model.Tier]int
	location *time.Location
	now      func() time.Time
}

// NewLedger creates a Ledger. Non-positive limits fall back to defaults
// and a nil location means time.Local.
func NewLedger(freeLimit, premiumLimit int, loc *time.Location) *Ledger {
	if freeLimit <= 0 {
		freeLimit = DefaultFreeDailyLimit
	}
	if premiumLimit <= 0 {
		premiumLimit = DefaultPremiumDailyLimit
	}
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{
		limits: map[model.Tier]int{
			model.TierFree:    freeLimit,
			model.TierPremium: premiumLimit,
		},
		location: loc,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (l *Ledger) SetClock(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Now returns the current time in the ledger's location.
func (l *Ledger) Now() time.Time {
	return l.now().In(l.location)
}

// Location returns the calendar location of the ledger.
func (l *Ledger) Location() *time.Location {
	return l.location
}

// LimitFor returns the daily limit of a tier. Unknown tiers get the free limit.
func (l *Ledger) LimitFor(tier model.Tier) int {
	if limit, ok := l.limits[tier]; ok {
		return limit
	}
	return l.limits[model.TierFree]
}

// StartOfDay returns 00:00:00.000 of t's calendar day in the ledger's location.
func (l *Ledger) StartOfDay(t time.Time) time.Time {
	t = t.In(l.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, l.location)
}

// NextReset returns the start of the calendar day after t.
func (l *Ledger) NextReset(t time.Time) time.Time {
	t = t.In(l.location)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, l.location)
}

// Admits reports whether a subject at usage may submit one more request.
func Admits(usage, limit int) bool {
	return usage < limit
}
