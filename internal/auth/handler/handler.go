// Package handler exposes the self-service auth endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubroster/internal/auth"
	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	"clubroster/internal/platform/middleware"
	"clubroster/internal/status"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/httputil"
)

// Service is the auth surface the handler needs.
type Service interface {
	Login(ctx context.Context, callSign, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, callSign, currentPassword, newPassword, confirmPassword string) error
	UpdateOwnProfile(ctx context.Context, callSign string, fields membermodels.ProfileFields) (*membermodels.Member, error)
	Profile(ctx context.Context, callSign string) (*membermodels.Member, error)
}

// StatusReader derives the standing shown on the member's own status page.
type StatusReader interface {
	MemberStatus(ctx context.Context, memberID int64) (*status.MemberStatus, error)
}

type Handler struct {
	auth   Service
	status StatusReader
	logger *slog.Logger
}

func New(authSvc Service, statusSvc StatusReader, logger *slog.Logger) *Handler {
	return &Handler{auth: authSvc, status: statusSvc, logger: logger}
}

// RegisterPublic mounts the routes that work without a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

// RegisterAuthenticated mounts the routes that need a valid session.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/password", h.handleChangePassword)
	r.Get("/me", h.handleProfile)
	r.Put("/me", h.handleUpdateProfile)
	r.Get("/me/status", h.handleStatus)
}

type loginRequest struct {
	CallSign string `json:"call_sign"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token              string               `json:"token"`
	Member             *membermodels.Member `json:"member"`
	MustChangePassword bool                 `json:"must_change_password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[loginRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.auth.Login(r.Context(), req.CallSign, req.Password)
	if err != nil {
		h.writeError(w, r, err, "login")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:              result.Token,
		Member:             result.Member,
		MustChangePassword: result.MustChangePassword,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.writeError(w, r, err, "logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	acting, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.Decode[changePasswordRequest](w, r, h.logger)
	if !ok {
		return
	}
	err := h.auth.ChangePassword(r.Context(), acting.CallSign, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.writeError(w, r, err, "change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	acting, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	member, err := h.auth.Profile(r.Context(), acting.CallSign)
	if err != nil {
		h.writeError(w, r, err, "load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	acting, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	fields, ok := httputil.Decode[membermodels.ProfileFields](w, r, h.logger)
	if !ok {
		return
	}
	member, err := h.auth.UpdateOwnProfile(r.Context(), acting.CallSign, fields)
	if err != nil {
		h.writeError(w, r, err, "update profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	acting, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	member, err := h.auth.Profile(r.Context(), acting.CallSign)
	if err != nil {
		h.writeError(w, r, err, "load profile")
		return
	}
	standing, err := h.status.MemberStatus(r.Context(), member.ID)
	if err != nil {
		h.writeError(w, r, err, "derive status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, standing)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	httputil.WriteError(w, err)
}
