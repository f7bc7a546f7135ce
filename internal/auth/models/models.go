package models

import "time"

// Account is a registry entry the authenticator resolves credentials to.
// PrimaryUID is set on secondary accounts and points one level up only.
type Account struct {
	UID        string
	Alias      string
	HashedKey  string
	IsBanned   bool
	MarkForBan bool
	PrimaryUID string
}

// IsSecondary reports whether the account is linked to a primary.
func (a *Account) IsSecondary() bool {
	return a.PrimaryUID != ""
}

// EffectivePrimaryUID is the account's primary, or its own UID when it has none.
func (a *Account) EffectivePrimaryUID() string {
	if a.PrimaryUID != "" {
		return a.PrimaryUID
	}
	return a.UID
}

// BanState is the combined ban state of an account and its primary.
type BanState struct {
	IsBanned   bool
	MarkForBan bool
}

// Merge ORs another account's flags into the state.
func (b BanState) Merge(a *Account) BanState {
	if a == nil {
		return b
	}
	return BanState{
		IsBanned:   b.IsBanned || a.IsBanned,
		MarkForBan: b.MarkForBan || a.MarkForBan,
	}
}

// Clean reports whether the account may be authorized.
func (b BanState) Clean() bool {
	return !b.IsBanned && !b.MarkForBan
}

// Verdict is the outcome of an authorization attempt.
//
// Success implies TemporarilyBlocked and PermanentlyBanned are both false.
// TemporarilyBlocked is only set when the request was refused before any
// registry lookup.
type Verdict struct {
	Success            bool   `json:"success"`
	UID                string `json:"uid,omitempty"`
	PrimaryUID         string `json:"primary_uid,omitempty"`
	Alias              string `json:"alias,omitempty"`
	TemporarilyBlocked bool   `json:"temporarily_blocked"`
	PermanentlyBanned  bool   `json:"permanently_banned"`
	MarkedForBan       bool   `json:"marked_for_ban"`
}

// SuccessVerdict builds the verdict for a clean account.
func SuccessVerdict(a *Account) *Verdict {
	return &Verdict{
		Success:    true,
		UID:        a.UID,
		PrimaryUID: a.EffectivePrimaryUID(),
		Alias:      a.Alias,
	}
}

// FailureVerdict hides why the attempt failed: unknown credentials and banned
// accounts look the same.
func FailureVerdict() *Verdict {
	return &Verdict{}
}

// BlockedVerdict is returned when the source address is temporarily blocked.
func BlockedVerdict() *Verdict {
	return &Verdict{TemporarilyBlocked: true}
}

// KeyAuthorizationRequest is the body of POST /auth/key.
type KeyAuthorizationRequest struct {
	HashedKey string `json:"hashed_key"`
}

// LinkedAuthorizationRequest is the body of POST /auth/linked. The primary UID
// comes from the identity token, never from the body.
type LinkedAuthorizationRequest struct {
	RequestedUID string `json:"requested_uid"`
}

// SessionResponse is returned for a successful authorization.
type SessionResponse struct {
	Token      string    `json:"token"`
	UID        string    `json:"uid"`
	PrimaryUID string    `json:"primary_uid"`
	Alias      string    `json:"alias,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}
