package config

import (
	"slices"
	"sync/atomic"
	"time"
)

// Settings holds the abuse guard tunables.
type Settings struct {
	// Failures above this count trigger a temporary block.
	FailedAuthThreshold int
	// How long a temporary block lasts before the address record is dropped.
	TempBanDuration time.Duration
	// Case-insensitive substrings; a matching address is never tracked.
	WhitelistedAddresses []string
	// Upper bound on tracked addresses, 0 disables the cap. Fixed at startup.
	MaxTrackedAddresses int
}

// DefaultSettings returns the documented defaults: 5 failures, 5 minute block.
func DefaultSettings() Settings {
	return Settings{
		FailedAuthThreshold: 5,
		TempBanDuration:     5 * time.Minute,
	}
}

// Provider exposes read-only access to the runtime tunables.
// Implementations must be cheap and must not perform I/O.
type Provider interface {
	FailedAuthThreshold() int
	TempBanDuration() time.Duration
	WhitelistedAddresses() []string
}

// Overrides carries per-setting runtime overrides. A nil field keeps the base value.
type Overrides struct {
	FailedAuthThreshold    *int
	TempBanDurationMinutes *int
	WhitelistedAddresses   []string
}

// IsEmpty reports whether no setting is overridden.
func (o Overrides) IsEmpty() bool {
	return o.FailedAuthThreshold == nil && o.TempBanDurationMinutes == nil && o.WhitelistedAddresses == nil
}

// Live is a Provider backed by an atomically swapped snapshot.
// Base values come from startup configuration; overrides are applied on top.
type Live struct {
	base    Settings
	current atomic.Pointer[Settings]
}

// NewLive builds a Live provider. A negative threshold or a non-positive
// duration falls back to the default. A threshold of 0 blocks on the first
// failure.
func NewLive(base Settings) *Live {
	defaults := DefaultSettings()
	if base.FailedAuthThreshold < 0 {
		base.FailedAuthThreshold = defaults.FailedAuthThreshold
	}
	if base.TempBanDuration <= 0 {
		base.TempBanDuration = defaults.TempBanDuration
	}
	base.WhitelistedAddresses = slices.Clone(base.WhitelistedAddresses)

	l := &Live{base: base}
	snapshot := base
	l.current.Store(&snapshot)
	return l
}

// Apply replaces the active overrides. Each field is validated on its own;
// invalid values are ignored so a bad override cannot disable the guard.
func (l *Live) Apply(o Overrides) Settings {
	next := l.base
	if o.FailedAuthThreshold != nil && *o.FailedAuthThreshold >= 0 {
		next.FailedAuthThreshold = *o.FailedAuthThreshold
	}
	if o.TempBanDurationMinutes != nil && *o.TempBanDurationMinutes > 0 {
		next.TempBanDuration = time.Duration(*o.TempBanDurationMinutes) * time.Minute
	}
	if o.WhitelistedAddresses != nil {
		next.WhitelistedAddresses = slices.Clone(o.WhitelistedAddresses)
	}
	l.current.Store(&next)
	return next
}

// Settings returns the active snapshot.
func (l *Live) Settings() Settings {
	return *l.current.Load()
}

func (l *Live) FailedAuthThreshold() int {
	return l.current.Load().FailedAuthThreshold
}

func (l *Live) TempBanDuration() time.Duration {
	return l.current.Load().TempBanDuration
}

func (l *Live) WhitelistedAddresses() []string {
	return l.current.Load().WhitelistedAddresses
}
