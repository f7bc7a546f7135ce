package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authHandler "syncauth/internal/auth/handler"
	"syncauth/internal/platform/clientconfig"
	"syncauth/internal/platform/health"
	"syncauth/internal/platform/metrics"
	abuseHandler "syncauth/internal/ratelimit/handler"
	"syncauth/pkg/platform/middleware/admin"
	"syncauth/pkg/platform/middleware/metadata"
	request "syncauth/pkg/platform/middleware/request"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 64 * 1024

// Deps are the handlers and middleware the router mounts. Abuse, Client and
// AdminToken are optional; without a token the operator routes are not mounted.
type Deps struct {
	Logger   *slog.Logger
	Auth     *authHandler.Handler
	Abuse    *abuseHandler.Handler
	Client   *clientconfig.Handler
	Health   *health.Handler
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Metadata *metadata.Middleware

	AdminToken string
}

// NewRouter wires all public endpoints with middleware. Handlers stay thin and
// delegate to domain services.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(d.Logger))
	r.Use(d.Metadata.Handler)
	r.Use(request.BodyLimit(MaxBodyBytes))

	d.Health.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(d.Metrics.Instrument)
		d.Auth.Register(r)
		if d.Client != nil {
			d.Client.Register(r)
		}
	})

	if d.Abuse != nil && d.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
			r.Use(d.Metrics.Instrument)
			d.Abuse.RegisterAdmin(r)
		})
	}

	return r
}
