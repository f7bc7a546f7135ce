package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"syncauth/internal/auth/models"
	jwttoken "syncauth/internal/jwt_token"
	dErrors "syncauth/pkg/domain-errors"
	"syncauth/pkg/platform/httputil"
	"syncauth/pkg/requestcontext"
)

// Service authorizes presented credentials.
type Service interface {
	AuthorizeByKey(ctx context.Context, address, hashedKey string) (*models.Verdict, error)
	AuthorizeByLinkedIdentity(ctx context.Context, address, primaryUID, requestedUID string) (*models.Verdict, error)
}

// Tokens issues session tokens and verifies identity tokens from the OAuth flow.
type Tokens interface {
	IssueSessionToken(verdict *models.Verdict) (string, time.Time, error)
	ParseIdentityToken(token string) (string, error)
}

// Guard is consulted directly when a request fails before reaching the
// service, e.g. with a missing or forged identity token.
type Guard interface {
	ShouldReject(ctx context.Context, address string) bool
	RecordFailure(ctx context.Context, address string)
}

type Handler struct {
	auth   Service
	tokens Tokens
	guard  Guard
	logger *slog.Logger
}

func New(auth Service, tokens Tokens, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{
		auth:   auth,
		tokens: tokens,
		guard:  guard,
		logger: logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/key", h.HandleAuthorizeKey)
	r.Post("/auth/linked", h.HandleAuthorizeLinked)
}

// HandleAuthorizeKey implements POST /auth/key.
//
// Input: { "hashed_key": "..." }
// Output: { "token": "...", "uid": "...", "primary_uid": "...", "alias": "...", "expires_at": "..." }
func (h *Handler) HandleAuthorizeKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[models.KeyAuthorizationRequest](w, r, h.logger)
	if !ok {
		return
	}

	verdict, err := h.auth.AuthorizeByKey(ctx, requestcontext.ClientIP(ctx), strings.TrimSpace(req.HashedKey))
	h.respond(w, r, verdict, err)
}

// HandleAuthorizeLinked implements POST /auth/linked.
// The bearer token is an identity token whose subject is the verified primary UID.
//
// Input: { "requested_uid": "..." }
// Output: same as /auth/key
func (h *Handler) HandleAuthorizeLinked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	address := requestcontext.ClientIP(ctx)

	primaryUID, err := h.identity(r)
	if err != nil {
		if h.guard.ShouldReject(ctx, address) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, "temporarily blocked"))
			return
		}
		h.guard.RecordFailure(ctx, address)
		h.logger.WarnContext(ctx, "identity token rejected",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication failed"))
		return
	}

	req, ok := httputil.DecodeJSON[models.LinkedAuthorizationRequest](w, r, h.logger)
	if !ok {
		return
	}

	verdict, err := h.auth.AuthorizeByLinkedIdentity(ctx, address, primaryUID, strings.TrimSpace(req.RequestedUID))
	h.respond(w, r, verdict, err)
}

func (h *Handler) identity(r *http.Request) (string, error) {
	raw, err := jwttoken.ExtractBearer(r.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}
	return h.tokens.ParseIdentityToken(raw)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, verdict *models.Verdict, err error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err != nil {
		h.logger.ErrorContext(ctx, "authorization failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	switch {
	case verdict.TemporarilyBlocked:
		httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, "temporarily blocked"))
		return
	case !verdict.Success:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication failed"))
		return
	}

	token, expiresAt, err := h.tokens.IssueSessionToken(verdict)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session token",
			"error", err,
			"uid", verdict.UID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "authorization successful",
		"uid", verdict.UID,
		"primary_uid", verdict.PrimaryUID,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, &models.SessionResponse{
		Token:      token,
		UID:        verdict.UID,
		PrimaryUID: verdict.PrimaryUID,
		Alias:      verdict.Alias,
		ExpiresAt:  expiresAt,
	})
}
