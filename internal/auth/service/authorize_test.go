package service

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"syncauth/internal/auth/models"
	dErrors "syncauth/pkg/domain-errors"
	"syncauth/pkg/platform/audit"
	"syncauth/pkg/platform/sentinel"
)

func notFound() error {
	return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestAuthorizeByKey() {
	s.Run("blocked address never reaches the registry", func() {
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(true)

		verdict, err := s.service.AuthorizeByKey(s.ctx, testAddress, "K1")
		s.Require().NoError(err)
		s.Equal(models.BlockedVerdict(), verdict)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.AuthenticationRequests))
		s.Equal(0.0, testutil.ToFloat64(s.metrics.AuthenticationFailures))
	})

	s.Run("unknown key records a failure", func() {
		s.SetupTest()
		s.allowAudit()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), "nope").Return(nil, notFound())
		s.mockGuard.EXPECT().RecordFailure(gomock.Any(), testAddress)

		verdict, err := s.service.AuthorizeByKey(s.ctx, testAddress, "nope")
		s.Require().NoError(err)
		s.Equal(models.FailureVerdict(), verdict)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.AuthenticationFailures))
		s.Equal(0.0, testutil.ToFloat64(s.metrics.AuthenticationSuccesses))
	})

	s.Run("clean primary succeeds with its own uid as primary", func() {
		s.SetupTest()
		s.allowAudit()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), "K1").
			Return(&models.Account{UID: "U1", Alias: "main", HashedKey: "K1"}, nil)

		verdict, err := s.service.AuthorizeByKey(s.ctx, testAddress, "K1")
		s.Require().NoError(err)
		s.Equal(&models.Verdict{Success: true, UID: "U1", PrimaryUID: "U1", Alias: "main"}, verdict)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.AuthenticationSuccesses))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ActiveSessions))
	})

	s.Run("clean secondary reports its primary", func() {
		s.SetupTest()
		s.allowAudit()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), "K2").
			Return(&models.Account{UID: "S1", PrimaryUID: "P1", Alias: "alt"}, nil)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "P1").Return(&models.Account{UID: "P1"}, nil)

		verdict, err := s.service.AuthorizeByKey(s.ctx, testAddress, "K2")
		s.Require().NoError(err)
		s.Equal(&models.Verdict{Success: true, UID: "S1", PrimaryUID: "P1", Alias: "alt"}, verdict)
	})

	s.Run("registry failure is a hard error without a verdict", func() {
		s.SetupTest()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), "K1").Return(nil, errors.New("connection refused"))

		verdict, err := s.service.AuthorizeByKey(s.ctx, testAddress, "K1")
		s.Nil(verdict)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RegistryErrors.WithLabelValues(lookupCredentialHash)))
		s.Equal(0.0, testutil.ToFloat64(s.metrics.AuthenticationFailures))
	})

	s.Run("secondary with a missing primary is an invariant violation", func() {
		s.SetupTest()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), "K2").
			Return(&models.Account{UID: "S1", PrimaryUID: "P1"}, nil)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "P1").Return(nil, notFound())

		verdict, err := s.service.AuthorizeByKey(s.ctx, testAddress, "K2")
		s.Nil(verdict)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ServiceSuite) TestBanStateIsHidden() {
	cases := []struct {
		name    string
		account *models.Account
		primary *models.Account
	}{
		{name: "banned account", account: &models.Account{UID: "U1", IsBanned: true}},
		{name: "account marked for ban", account: &models.Account{UID: "U1", MarkForBan: true}},
		{name: "secondary of banned primary", account: &models.Account{UID: "S1", PrimaryUID: "P1"}, primary: &models.Account{UID: "P1", IsBanned: true}},
		{name: "secondary of primary marked for ban", account: &models.Account{UID: "S1", PrimaryUID: "P1"}, primary: &models.Account{UID: "P1", MarkForBan: true}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
			s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), "K").Return(tc.account, nil)
			if tc.primary != nil {
				s.mockAccounts.EXPECT().FindByUID(gomock.Any(), tc.primary.UID).Return(tc.primary, nil)
			}
			s.mockGuard.EXPECT().RecordFailure(gomock.Any(), testAddress)
			s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ any, event audit.Event) error {
					s.Equal(audit.EventAuthFailed.String(), event.Action)
					s.Equal(reasonBanned, event.Reason)
					s.Equal(tc.account.UID, event.Subject)
					return nil
				})

			verdict, err := s.service.AuthorizeByKey(s.ctx, testAddress, "K")
			s.Require().NoError(err)
			s.Equal(models.FailureVerdict(), verdict)
			s.False(verdict.PermanentlyBanned)
			s.False(verdict.MarkedForBan)
			s.Empty(verdict.UID)
			s.Equal(1.0, testutil.ToFloat64(s.metrics.AuthenticationFailures))
		})
	}
}

func (s *ServiceSuite) TestAuthorizeByLinkedIdentity() {
	s.Run("blocked address never reaches the registry", func() {
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(true)

		verdict, err := s.service.AuthorizeByLinkedIdentity(s.ctx, testAddress, "P1", "S1")
		s.Require().NoError(err)
		s.True(verdict.TemporarilyBlocked)
		s.False(verdict.Success)
	})

	s.Run("unknown primary fails without looking up the requested account", func() {
		s.SetupTest()
		s.allowAudit()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "P1").Return(nil, notFound())
		s.mockGuard.EXPECT().RecordFailure(gomock.Any(), testAddress)

		verdict, err := s.service.AuthorizeByLinkedIdentity(s.ctx, testAddress, "P1", "S1")
		s.Require().NoError(err)
		s.Equal(models.FailureVerdict(), verdict)
	})

	s.Run("unknown requested account fails", func() {
		s.SetupTest()
		s.allowAudit()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "P1").Return(&models.Account{UID: "P1"}, nil)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "S9").Return(nil, notFound())
		s.mockGuard.EXPECT().RecordFailure(gomock.Any(), testAddress)

		verdict, err := s.service.AuthorizeByLinkedIdentity(s.ctx, testAddress, "P1", "S9")
		s.Require().NoError(err)
		s.Equal(models.FailureVerdict(), verdict)
	})

	s.Run("secondary resumes under its primary", func() {
		s.SetupTest()
		s.allowAudit()
		primary := &models.Account{UID: "P1", Alias: "main"}
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "P1").Return(primary, nil).Times(2)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "S1").
			Return(&models.Account{UID: "S1", PrimaryUID: "P1", Alias: "alt"}, nil)

		verdict, err := s.service.AuthorizeByLinkedIdentity(s.ctx, testAddress, "P1", "S1")
		s.Require().NoError(err)
		s.Equal(&models.Verdict{Success: true, UID: "S1", PrimaryUID: "P1", Alias: "alt"}, verdict)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.AuthenticationSuccesses))
	})

	s.Run("banned primary fails its secondary", func() {
		s.SetupTest()
		s.allowAudit()
		primary := &models.Account{UID: "P1", IsBanned: true}
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "P1").Return(primary, nil).Times(2)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "S1").
			Return(&models.Account{UID: "S1", PrimaryUID: "P1"}, nil)
		s.mockGuard.EXPECT().RecordFailure(gomock.Any(), testAddress)

		verdict, err := s.service.AuthorizeByLinkedIdentity(s.ctx, testAddress, "P1", "S1")
		s.Require().NoError(err)
		s.Equal(models.FailureVerdict(), verdict)
	})

	s.Run("registry failure on the primary lookup", func() {
		s.SetupTest()
		s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
		s.mockAccounts.EXPECT().FindByUID(gomock.Any(), "P1").Return(nil, errors.New("timeout"))

		verdict, err := s.service.AuthorizeByLinkedIdentity(s.ctx, testAddress, "P1", "S1")
		s.Nil(verdict)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestRequestsCountedForEveryOutcome() {
	s.allowAudit()
	s.mockGuard.EXPECT().ShouldReject(gomock.Any(), gomock.Any()).Return(true)
	s.mockGuard.EXPECT().ShouldReject(gomock.Any(), gomock.Any()).Return(false).Times(2)
	s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), gomock.Any()).Return(nil, notFound())
	s.mockAccounts.EXPECT().FindByUID(gomock.Any(), gomock.Any()).Return(nil, errors.New("down"))
	s.mockGuard.EXPECT().RecordFailure(gomock.Any(), gomock.Any())

	_, _ = s.service.AuthorizeByKey(s.ctx, testAddress, "K")
	_, _ = s.service.AuthorizeByKey(s.ctx, testAddress, "K")
	_, _ = s.service.AuthorizeByLinkedIdentity(s.ctx, testAddress, "P1", "S1")

	s.Equal(3.0, testutil.ToFloat64(s.metrics.AuthenticationRequests))
}
