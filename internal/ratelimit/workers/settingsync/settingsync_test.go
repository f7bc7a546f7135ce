package settingsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"syncauth/internal/ratelimit/config"
)

type stubSource struct {
	overrides config.Overrides
	err       error
	calls     int
}

func (s *stubSource) Load(context.Context) (config.Overrides, error) {
	s.calls++
	return s.overrides, s.err
}

type SettingsSyncSuite struct {
	suite.Suite
	source  *stubSource
	live    *config.Live
	service *SettingsSyncService
}

func TestSettingsSyncSuite(t *testing.T) {
	suite.Run(t, new(SettingsSyncSuite))
}

func (s *SettingsSyncSuite) SetupTest() {
	s.source = &stubSource{}
	s.live = config.NewLive(config.DefaultSettings())
	s.service = New(s.source, s.live, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func intPtr(v int) *int { return &v }

func (s *SettingsSyncSuite) TestRunOnceAppliesOverrides() {
	s.source.overrides = config.Overrides{
		FailedAuthThreshold:    intPtr(3),
		TempBanDurationMinutes: intPtr(10),
		WhitelistedAddresses:   []string{"10.0.0"},
	}

	res, err := s.service.RunOnce(context.Background())
	s.Require().NoError(err)
	s.True(res.Changed)
	s.Equal(3, s.live.FailedAuthThreshold())
	s.Equal(10*time.Minute, s.live.TempBanDuration())
	s.Equal([]string{"10.0.0"}, s.live.WhitelistedAddresses())

	res, err = s.service.RunOnce(context.Background())
	s.Require().NoError(err)
	s.False(res.Changed, "same overrides twice is not a change")
}

func (s *SettingsSyncSuite) TestRemovedOverridesRevertToBase() {
	s.source.overrides = config.Overrides{FailedAuthThreshold: intPtr(2)}
	_, err := s.service.RunOnce(context.Background())
	s.Require().NoError(err)

	s.source.overrides = config.Overrides{}
	res, err := s.service.RunOnce(context.Background())
	s.Require().NoError(err)
	s.True(res.Changed)
	s.Equal(5, s.live.FailedAuthThreshold())
}

func (s *SettingsSyncSuite) TestSourceErrorKeepsPreviousSettings() {
	s.source.overrides = config.Overrides{FailedAuthThreshold: intPtr(2)}
	_, err := s.service.RunOnce(context.Background())
	s.Require().NoError(err)

	s.source.overrides = config.Overrides{}
	s.source.err = errors.New("redis down")
	res, err := s.service.RunOnce(context.Background())
	s.Error(err)
	s.Nil(res)
	s.Equal(2, s.live.FailedAuthThreshold())
}

func (s *SettingsSyncSuite) TestPartialOverridesAppliedWithError() {
	s.source.overrides = config.Overrides{TempBanDurationMinutes: intPtr(1)}
	s.source.err = errors.New("invalid override fields: FailedAuthForTempBan")

	res, err := s.service.RunOnce(context.Background())
	s.Error(err)
	s.Require().NotNil(res)
	s.Equal(time.Minute, s.live.TempBanDuration())
}

func (s *SettingsSyncSuite) TestStartPollsImmediatelyAndStops() {
	ctx, cancel := context.WithCancel(context.Background())
	service := New(s.source, s.live, WithInterval(time.Hour),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.source.overrides = config.Overrides{FailedAuthThreshold: intPtr(9)}

	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()

	s.Eventually(func() bool { return s.live.FailedAuthThreshold() == 9 }, time.Second, 5*time.Millisecond)
	cancel()
	s.ErrorIs(<-done, context.Canceled)
}

func (s *SettingsSyncSuite) TestRepeatedFailuresMarkSourceDegraded() {
	ctx := context.Background()
	s.source.err = errors.New("redis down")

	s.service.poll(ctx)
	s.service.poll(ctx)
	s.False(s.service.Degraded())
	s.service.poll(ctx)
	s.True(s.service.Degraded())
	s.Equal(5, s.live.FailedAuthThreshold(), "base settings stay in force")

	s.source.err = nil
	s.source.overrides = config.Overrides{FailedAuthThreshold: intPtr(4)}
	s.service.poll(ctx)
	s.False(s.service.Degraded())
	s.Equal(4, s.live.FailedAuthThreshold())
}

func (s *SettingsSyncSuite) TestPartialOverridesDoNotDegrade() {
	ctx := context.Background()
	s.source.overrides = config.Overrides{TempBanDurationMinutes: intPtr(2)}
	s.source.err = errors.New("invalid override fields: FailedAuthForTempBan")

	for range 5 {
		s.service.poll(ctx)
	}
	s.False(s.service.Degraded())
}
