package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"syncauth/internal/ratelimit/models"
	dErrors "syncauth/pkg/domain-errors"
	"syncauth/pkg/platform/httputil"
	"syncauth/pkg/platform/middleware/admin"
	"syncauth/pkg/requestcontext"
)

// Guard exposes the operator view of the abuse guard.
type Guard interface {
	Snapshot(address string) (models.FailureRecord, bool)
	Clear(ctx context.Context, address string) bool
	Tracked() int
}

type Handler struct {
	guard  Guard
	logger *slog.Logger
}

func New(guard Guard, logger *slog.Logger) *Handler {
	return &Handler{
		guard:  guard,
		logger: logger,
	}
}

// RegisterAdmin mounts the operator routes. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/abuse", h.HandleSummary)
	r.Get("/admin/abuse/{address}", h.HandleGetAddress)
	r.Delete("/admin/abuse/{address}", h.HandleClearAddress)
}

// HandleSummary implements GET /admin/abuse.
//
// Output: { "tracked_addresses": 3 }
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"tracked_addresses": h.guard.Tracked(),
	})
}

// HandleGetAddress implements GET /admin/abuse/{address}.
//
// Output: { "address": "...", "failures": 6, "blocked": true, "blocked_at": "...", "expires_at": "..." }
func (h *Handler) HandleGetAddress(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	record, ok := h.guard.Snapshot(address)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "address is not tracked"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleClearAddress implements DELETE /admin/abuse/{address}.
// Lifts any temporary ban and resets the failure counter.
//
// Output: 204 No Content
func (h *Handler) HandleClearAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	if !h.guard.Clear(ctx, address) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "address is not tracked"))
		return
	}

	h.logger.InfoContext(ctx, "abuse guard record cleared",
		"address", address,
		"actor_id", admin.GetAdminActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
