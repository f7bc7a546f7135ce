package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"syncauth/internal/auth/handler/mocks"
	"syncauth/internal/auth/models"
	jwttoken "syncauth/internal/jwt_token"
	dErrors "syncauth/pkg/domain-errors"
	"syncauth/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,Guard

const clientAddress = "203.0.113.7"

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	guard   *mocks.MockGuard
	tokens  *jwttoken.JWTService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.guard = mocks.NewMockGuard(s.ctrl)
	s.tokens = jwttoken.NewJWTService("session-key", "identity-key", "syncauth-test", 15*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithClientMetadata(r.Context(), clientAddress, "test-agent")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	New(s.service, s.tokens, s.guard, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func (s *HandlerSuite) TestAuthorizeKey() {
	s.Run("success issues a session token", func() {
		s.service.EXPECT().AuthorizeByKey(gomock.Any(), clientAddress, "k1").
			Return(&models.Verdict{Success: true, UID: "S1", PrimaryUID: "P1", Alias: "alt"}, nil)

		rec := s.do("/auth/key", `{"hashed_key":" k1 "}`, "")

		s.Require().Equal(http.StatusOK, rec.Code)
		var got models.SessionResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal("S1", got.UID)
		s.Equal("P1", got.PrimaryUID)
		s.Equal("alt", got.Alias)
		s.False(got.ExpiresAt.IsZero())

		claims, err := s.tokens.ValidateSessionToken(got.Token)
		s.Require().NoError(err)
		s.Equal("S1", claims.UID)
		s.Equal("P1", claims.PrimaryUID)
	})

	s.Run("failure is 401 without ban details", func() {
		s.service.EXPECT().AuthorizeByKey(gomock.Any(), clientAddress, "k2").Return(models.FailureVerdict(), nil)

		rec := s.do("/auth/key", `{"hashed_key":"k2"}`, "")

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("unauthorized", s.errorCode(rec))
		s.NotContains(rec.Body.String(), "ban")
	})

	s.Run("temporary block is 429", func() {
		s.service.EXPECT().AuthorizeByKey(gomock.Any(), clientAddress, "k3").Return(models.BlockedVerdict(), nil)

		rec := s.do("/auth/key", `{"hashed_key":"k3"}`, "")

		s.Equal(http.StatusTooManyRequests, rec.Code)
		s.Equal("too_many_requests", s.errorCode(rec))
	})

	s.Run("registry error is 500", func() {
		s.service.EXPECT().AuthorizeByKey(gomock.Any(), clientAddress, "k4").
			Return(nil, dErrors.Wrap(errors.New("connection refused"), dErrors.CodeInternal, "account registry unavailable"))

		rec := s.do("/auth/key", `{"hashed_key":"k4"}`, "")

		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "connection refused")
	})

	s.Run("malformed body is 400 and never reaches the service", func() {
		rec := s.do("/auth/key", `{"hashed_key":`, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestAuthorizeLinked() {
	s.Run("identity token subject becomes the primary uid", func() {
		identity, err := s.tokens.GenerateIdentityToken("P1", time.Minute)
		s.Require().NoError(err)
		s.service.EXPECT().AuthorizeByLinkedIdentity(gomock.Any(), clientAddress, "P1", "S1").
			Return(&models.Verdict{Success: true, UID: "S1", PrimaryUID: "P1"}, nil)

		rec := s.do("/auth/linked", `{"requested_uid":"S1"}`, identity)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("missing bearer records a failure", func() {
		s.guard.EXPECT().ShouldReject(gomock.Any(), clientAddress).Return(false)
		s.guard.EXPECT().RecordFailure(gomock.Any(), clientAddress)

		rec := s.do("/auth/linked", `{"requested_uid":"S1"}`, "")

		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("forged bearer records a failure", func() {
		forged := jwttoken.NewJWTService("other", "other", "x", time.Minute)
		identity, err := forged.GenerateIdentityToken("P1", time.Minute)
		s.Require().NoError(err)
		s.guard.EXPECT().ShouldReject(gomock.Any(), clientAddress).Return(false)
		s.guard.EXPECT().RecordFailure(gomock.Any(), clientAddress)

		rec := s.do("/auth/linked", `{"requested_uid":"S1"}`, identity)

		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("blocked address with bad bearer is 429 and not counted", func() {
		s.guard.EXPECT().ShouldReject(gomock.Any(), clientAddress).Return(true)
		s.guard.EXPECT().RecordFailure(gomock.Any(), gomock.Any()).Times(0)

		rec := s.do("/auth/linked", `{"requested_uid":"S1"}`, "not-a-jwt")

		s.Equal(http.StatusTooManyRequests, rec.Code)
	})
}
