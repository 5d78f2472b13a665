// Package handler exposes the admin audit-log and dashboard endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clubroster/internal/audit"
	"clubroster/internal/status"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks

const defaultAuditLimit = 100

// Log is the read side of the admin action log.
type Log interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Entry, error)
	ListByTarget(ctx context.Context, targetCallSign string) ([]audit.Entry, error)
}

// DashboardReader builds the admin overview.
type DashboardReader interface {
	Dashboard(ctx context.Context) (*status.Dashboard, error)
}

type Handler struct {
	log       Log
	dashboard DashboardReader
	logger    *slog.Logger
}

func New(log Log, dashboard DashboardReader, logger *slog.Logger) *Handler {
	return &Handler{log: log, dashboard: dashboard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleRecent)
	r.Get("/audit/member/{callSign}", h.handleByTarget)
	r.Get("/dashboard", h.handleDashboard)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}
	entries, err := h.log.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err, "list audit entries")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleByTarget(w http.ResponseWriter, r *http.Request) {
	entries, err := h.log.ListByTarget(r.Context(), chi.URLParam(r, "callSign"))
	if err != nil {
		h.writeError(w, r, err, "list audit entries")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err, "build dashboard")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	httputil.WriteError(w, err)
}
