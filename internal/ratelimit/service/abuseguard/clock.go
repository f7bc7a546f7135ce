package abuseguard

import (
	"time"

	"syncauth/internal/ratelimit/store/failures"
)

// Clock supplies the current time and schedules block expiries.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) failures.Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) failures.Timer {
	return time.AfterFunc(d, f)
}
