// Package handler exposes the admin member endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clubroster/internal/identity"
	"clubroster/internal/member/models"
	"clubroster/internal/member/service"
	"clubroster/internal/status"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/httputil"
)

// Service is the member command surface the handler needs.
type Service interface {
	CreateMember(ctx context.Context, acting identity.Acting, in service.CreateMemberInput) (*models.Member, error)
	UpdateProfile(ctx context.Context, acting identity.Acting, memberID int64, fields models.ProfileFields) (*models.Member, error)
	UpdateMemberCallSign(ctx context.Context, acting identity.Acting, memberID int64, newCallSign string) (*models.Member, error)
	ToggleAdmin(ctx context.Context, acting identity.Acting, memberID int64) (*models.Member, error)
	ToggleActive(ctx context.Context, acting identity.Acting, memberID int64) (*models.Member, error)
	ResetPassword(ctx context.Context, acting identity.Acting, memberID int64) (string, error)
	DeleteMember(ctx context.Context, acting identity.Acting, memberID int64) error
	GetMember(ctx context.Context, memberID int64) (*models.Member, error)
}

// Lister serves the filtered member list.
type Lister interface {
	ListMembers(ctx context.Context, search string, filter status.Filter) ([]models.Member, error)
}

// Handler handles admin member endpoints.
type Handler struct {
	members Service
	lister  Lister
	logger  *slog.Logger
}

func New(members Service, lister Lister, logger *slog.Logger) *Handler {
	return &Handler{members: members, lister: lister, logger: logger}
}

// Register mounts the member routes. The caller wraps the router with the
// auth and admin middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/members", h.handleList)
	r.Post("/members", h.handleCreate)
	r.Get("/members/{id}", h.handleGet)
	r.Put("/members/{id}", h.handleUpdateProfile)
	r.Put("/members/{id}/call-sign", h.handleUpdateCallSign)
	r.Post("/members/{id}/toggle-admin", h.handleToggleAdmin)
	r.Post("/members/{id}/toggle-active", h.handleToggleActive)
	r.Post("/members/{id}/reset-password", h.handleResetPassword)
	r.Delete("/members/{id}", h.handleDelete)
}

type createMemberRequest struct {
	CallSign       string               `json:"call_sign"`
	Profile        models.ProfileFields `json:"profile"`
	MembershipType string               `json:"membership_type"`
	JoinDate       string               `json:"join_date"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createMemberRequest](w, r, h.logger)
	if !ok {
		return
	}
	joinDate, err := httputil.ParseOptionalDate(req.JoinDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	member, err := h.members.CreateMember(r.Context(), actingFrom(r), service.CreateMemberInput{
		CallSign:       req.CallSign,
		Profile:        req.Profile,
		MembershipType: req.MembershipType,
		JoinDate:       joinDate,
	})
	if err != nil {
		h.writeError(w, r, err, "create member")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := status.ParseFilter(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	members, err := h.lister.ListMembers(r.Context(), r.URL.Query().Get("search"), filter)
	if err != nil {
		h.writeError(w, r, err, "list members")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	member, err := h.members.GetMember(r.Context(), memberID)
	if err != nil {
		h.writeError(w, r, err, "get member")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	fields, ok := httputil.Decode[models.ProfileFields](w, r, h.logger)
	if !ok {
		return
	}
	member, err := h.members.UpdateProfile(r.Context(), actingFrom(r), memberID, fields)
	if err != nil {
		h.writeError(w, r, err, "update member")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

type updateCallSignRequest struct {
	CallSign string `json:"call_sign"`
}

func (h *Handler) handleUpdateCallSign(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateCallSignRequest](w, r, h.logger)
	if !ok {
		return
	}
	member, err := h.members.UpdateMemberCallSign(r.Context(), actingFrom(r), memberID, req.CallSign)
	if err != nil {
		h.writeError(w, r, err, "update call sign")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleToggleAdmin(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.members.ToggleAdmin)
}

func (h *Handler) handleToggleActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.members.ToggleActive)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, identity.Acting, int64) (*models.Member, error)) {
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	member, err := op(r.Context(), actingFrom(r), memberID)
	if err != nil {
		h.writeError(w, r, err, "toggle member flag")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	temp, err := h.members.ResetPassword(r.Context(), actingFrom(r), memberID)
	if err != nil {
		h.writeError(w, r, err, "reset password")
		return
	}
	// The plaintext is returned exactly once; only its hash is stored.
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"temporary_password": temp})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	if err := h.members.DeleteMember(r.Context(), actingFrom(r), memberID); err != nil {
		h.writeError(w, r, err, "delete member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) memberID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return 0, false
	}
	return id, true
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
