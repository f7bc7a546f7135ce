package service

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"

	"go.uber.org/mock/gomock"

	"syncauth/internal/auth/models"
)

func (s *ServiceSuite) authorizeWithLogs(emitErr error, withPublisher bool) string {
	logs := &bytes.Buffer{}
	opts := []Option{
		WithLogger(slog.New(slog.NewJSONHandler(logs, nil))),
		WithMetrics(s.metrics),
	}
	if withPublisher {
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(emitErr)
		opts = append(opts, WithAuditPublisher(s.mockAudit))
	}
	service, err := New(s.mockAccounts, s.mockGuard, opts...)
	s.Require().NoError(err)

	s.mockGuard.EXPECT().ShouldReject(gomock.Any(), testAddress).Return(false)
	s.mockAccounts.EXPECT().FindByCredentialHash(gomock.Any(), "K1").
		Return(&models.Account{UID: "U1", HashedKey: "K1"}, nil)

	_, err = service.AuthorizeByKey(s.ctx, testAddress, "K1")
	s.Require().NoError(err)
	return logs.String()
}

func (s *ServiceSuite) TestAuditEventLogging() {
	s.Run("published events are not logged again", func() {
		s.SetupTest()
		out := s.authorizeWithLogs(nil, true)
		s.NotContains(out, `"log_type":"audit"`)
	})

	s.Run("refused events are logged", func() {
		s.SetupTest()
		out := s.authorizeWithLogs(errors.New("audit queue full"), true)
		s.Contains(out, "failed to emit audit event")
		s.Equal(1, strings.Count(out, `"log_type":"audit"`))
	})

	s.Run("events are logged without a publisher", func() {
		s.SetupTest()
		out := s.authorizeWithLogs(nil, false)
		s.Equal(1, strings.Count(out, `"log_type":"audit"`))
		s.Contains(out, `"uid":"U1"`)
	})
}
