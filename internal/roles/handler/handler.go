// Package handler exposes the admin role-history endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clubroster/internal/identity"
	"clubroster/internal/roles/models"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/httputil"
)

type Service interface {
	AddRole(ctx context.Context, acting identity.Acting, memberID int64, roleName string, startDate time.Time, notes string) (*models.Role, error)
	EndRole(ctx context.Context, acting identity.Acting, roleID int64, endDate time.Time) (*models.Role, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.Role, error)
	ListCurrent(ctx context.Context) ([]models.Role, error)
}

type Handler struct {
	roles  Service
	logger *slog.Logger
}

func New(roles Service, logger *slog.Logger) *Handler {
	return &Handler{roles: roles, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/roles", h.handleAdd)
	r.Post("/roles/{id}/end", h.handleEnd)
	r.Get("/roles/current", h.handleListCurrent)
	r.Get("/members/{id}/roles", h.handleListByMember)
}

type addRoleRequest struct {
	MemberID  int64  `json:"member_id"`
	RoleName  string `json:"role_name"`
	StartDate string `json:"start_date"`
	Notes     string `json:"notes"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[addRoleRequest](w, r, h.logger)
	if !ok {
		return
	}
	startDate, err := httputil.ParseDate(req.StartDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := h.roles.AddRole(r.Context(), actingFrom(r), req.MemberID, req.RoleName, startDate, req.Notes)
	if err != nil {
		h.writeError(w, r, err, "add role")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, role)
}

type endRoleRequest struct {
	EndDate string `json:"end_date"`
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid role id"))
		return
	}
	req, ok := httputil.Decode[endRoleRequest](w, r, h.logger)
	if !ok {
		return
	}
	endDate, err := httputil.ParseDate(req.EndDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := h.roles.EndRole(r.Context(), actingFrom(r), roleID, endDate)
	if err != nil {
		h.writeError(w, r, err, "end role")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) handleListCurrent(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListCurrent(r.Context())
	if err != nil {
		h.writeError(w, r, err, "list current roles")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) handleListByMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return
	}
	roles, err := h.roles.ListByMember(r.Context(), memberID)
	if err != nil {
		h.writeError(w, r, err, "list roles")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	httputil.WriteError(w, err)
}

func actingFrom(r *http.Request) identity.Acting {
	acting, _ := identity.FromContext(r.Context())
	return acting
}
