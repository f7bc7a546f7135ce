package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type AdminMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AdminMiddlewareSuite) serve(expected, presented, actor string) (int, bool, string) {
	called := false
	var gotActor string
	handler := RequireAdminToken(expected, s.logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			gotActor = GetAdminActorID(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/admin/abuse/x", nil)
	if presented != "" {
		req.Header.Set("X-Admin-Token", presented)
	}
	if actor != "" {
		req.Header.Set("X-Admin-Actor-ID", actor)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code, called, gotActor
}

func (s *AdminMiddlewareSuite) TestTokenValidation() {
	s.Run("correct token passes and records the actor", func() {
		code, called, actor := s.serve("secret", "secret", "ops@example.com")
		s.Equal(http.StatusOK, code)
		s.True(called)
		s.Equal("ops@example.com", actor)
	})

	s.Run("wrong token returns 401 and blocks handler", func() {
		code, called, _ := s.serve("secret", "wrong", "")
		s.Equal(http.StatusUnauthorized, code)
		s.False(called)
	})

	s.Run("missing token returns 401", func() {
		code, called, _ := s.serve("secret", "", "")
		s.Equal(http.StatusUnauthorized, code)
		s.False(called)
	})

	s.Run("empty configured token rejects everything", func() {
		code, called, _ := s.serve("", "", "")
		s.Equal(http.StatusUnauthorized, code)
		s.False(called)
	})

	s.Run("overlong actor is not recorded", func() {
		code, called, actor := s.serve("secret", "secret", strings.Repeat("a", maxActorIDLength+1))
		s.Equal(http.StatusOK, code)
		s.True(called)
		s.Empty(actor)
	})
}
