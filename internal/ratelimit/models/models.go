package models

import "time"

// FailureRecord is a point-in-time view of one source address's failure state.
// Records live only in process memory and vanish when their block expires.
type FailureRecord struct {
	Address  string `json:"address"`
	Failures int    `json:"failures"`
	// Blocked is true once an expiry has been scheduled for the address.
	Blocked   bool      `json:"blocked"`
	BlockedAt time.Time `json:"blocked_at,omitzero"`
	// ExpiresAt is BlockedAt plus the block duration in force when the block started.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Exceeds reports whether the failure count is above the threshold.
func (r FailureRecord) Exceeds(threshold int) bool {
	return r.Failures > threshold
}
