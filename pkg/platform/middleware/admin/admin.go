// Package admin protects the operator routes that inspect and lift abuse
// blocks.
package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "syncauth/pkg/domain-errors"
	"syncauth/pkg/platform/httputil"
	"syncauth/pkg/requestcontext"
)

const (
	HeaderToken   = "X-Admin-Token"
	HeaderActorID = "X-Admin-Actor-ID"

	maxActorIDLength = 128
)

type actorKey struct{}

// GetAdminActorID returns the operator named by X-Admin-Actor-ID, or "".
func GetAdminActorID(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// RequireAdminToken compares X-Admin-Token in constant time. An empty
// expected token locks the routes entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	expected := []byte(expectedToken)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			presented := []byte(r.Header.Get(HeaderToken))
			if len(expected) == 0 || subtle.ConstantTimeCompare(presented, expected) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"client_ip", requestcontext.ClientIP(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			// The actor is free text for attribution only; overlong values are dropped.
			if actor := r.Header.Get(HeaderActorID); actor != "" && len(actor) <= maxActorIDLength {
				ctx = context.WithValue(ctx, actorKey{}, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
