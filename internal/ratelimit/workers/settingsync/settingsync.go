package settingsync

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"syncauth/internal/ratelimit/config"
	"syncauth/pkg/platform/circuit"
)

// SyncResult describes one poll of the overrides source.
type SyncResult struct {
	Applied  config.Settings
	Changed  bool
	Duration time.Duration
}

type OverridesSource interface {
	Load(ctx context.Context) (config.Overrides, error)
}

type Target interface {
	Settings() config.Settings
	Apply(o config.Overrides) config.Settings
}

type Option func(*SettingsSyncService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *SettingsSyncService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *SettingsSyncService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// SettingsSyncService polls runtime overrides and publishes them to the live
// abuse guard settings, keeping I/O off the request path.
type SettingsSyncService struct {
	source   OverridesSource
	target   Target
	logger   *slog.Logger
	interval time.Duration
	breaker  *circuit.Breaker
}

func New(source OverridesSource, target Target, opts ...Option) *SettingsSyncService {
	service := &SettingsSyncService{
		source:   source,
		target:   target,
		logger:   slog.Default(),
		interval: 30 * time.Second,
		breaker:  circuit.New("settings_source", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *SettingsSyncService) Start(ctx context.Context) error {
	s.poll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.poll(ctx)
		case <-ctx.Done():
			s.logger.Info("settings sync worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// Degraded reports whether the overrides source has failed repeatedly. The
// last applied settings stay in force meanwhile.
func (s *SettingsSyncService) Degraded() bool {
	return s.breaker.IsOpen()
}

func (s *SettingsSyncService) poll(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if res == nil {
		s.recordFailure(err)
		return
	}
	if err != nil {
		s.logger.Warn("abuse_guard_settings_partially_applied", "error", err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.Info("abuse_guard_settings_source_recovered", "source", s.breaker.Name())
	}
	if res.Changed {
		s.logger.Info("abuse_guard_settings_changed",
			"failed_auth_threshold", res.Applied.FailedAuthThreshold,
			"temp_ban_duration", res.Applied.TempBanDuration.String(),
			"whitelisted_addresses", len(res.Applied.WhitelistedAddresses),
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
}

func (s *SettingsSyncService) recordFailure(err error) {
	open, change := s.breaker.RecordFailure()
	switch {
	case change.Opened:
		s.logger.Error("abuse_guard_settings_source_degraded",
			"source", s.breaker.Name(),
			"error", err,
		)
	case open:
		// Already reported when the breaker opened.
		s.logger.Debug("abuse_guard_settings_sync_failed", "error", err)
	default:
		s.logger.Warn("abuse_guard_settings_sync_failed", "error", err)
	}
}

// RunOnce loads the overrides and applies them. When the source returns
// partial overrides alongside an error they are still applied; a nil result
// means nothing was applied and the previous settings stay active.
func (s *SettingsSyncService) RunOnce(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	overrides, err := s.source.Load(ctx)
	if err != nil && overrides.IsEmpty() {
		return nil, err
	}

	before := s.target.Settings()
	applied := s.target.Apply(overrides)
	return &SyncResult{
		Applied:  applied,
		Changed:  !equalSettings(before, applied),
		Duration: time.Since(start),
	}, err
}

func equalSettings(a, b config.Settings) bool {
	if a.FailedAuthThreshold != b.FailedAuthThreshold || a.TempBanDuration != b.TempBanDuration {
		return false
	}
	return slices.Equal(a.WhitelistedAddresses, b.WhitelistedAddresses)
}
