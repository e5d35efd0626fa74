// Package model defines domain entities for the application.
package model

import "time"

// Tier names the quota tier a profile falls into.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Profile represents the account record of an authenticated subject.
// Premium is maintained outside this service and is only ever read here.
type Profile struct {
	UserID      string    `json:"user_id"`
	Email       *string   `json:"email,omitempty"`
	DisplayName *string   `json:"display_name,omitempty"`
	Premium     bool      `json:"premium"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tier returns the quota tier for the profile.
// A nil profile (no record yet) is free.
func (p *Profile) Tier() Tier {
	return TierForPremium(p != nil && p.Premium)
}

// TierForPremium maps the premium flag to a tier.
func TierForPremium(premium bool) Tier {
	if premium {
		return TierPremium
	}
	return TierFree
}

// AuthContext holds the verified identity of the caller.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID      string
	Email       string
	DisplayName string
}
