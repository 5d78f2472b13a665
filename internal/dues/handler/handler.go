// Package handler exposes the admin dues endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clubroster/internal/dues/models"
	"clubroster/internal/dues/service"
	"clubroster/internal/identity"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/httputil"
)

type Service interface {
	RecordPayment(ctx context.Context, acting identity.Acting, in service.RecordPaymentInput) (*models.Payment, error)
	EditPayment(ctx context.Context, acting identity.Acting, paymentID int64, in service.EditPaymentInput) (*models.Payment, error)
	DeletePayment(ctx context.Context, acting identity.Acting, paymentID int64) error
	ListByMember(ctx context.Context, memberID int64) ([]models.Payment, error)
	ListByYear(ctx context.Context, year int) ([]models.Payment, error)
}

type Handler struct {
	dues   Service
	logger *slog.Logger
}

func New(dues Service, logger *slog.Logger) *Handler {
	return &Handler{dues: dues, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/dues", h.handleRecord)
	r.Put("/dues/{id}", h.handleEdit)
	r.Delete("/dues/{id}", h.handleDelete)
	r.Get("/members/{id}/dues", h.handleListByMember)
	r.Get("/dues/year/{year}", h.handleListByYear)
}

type recordPaymentRequest struct {
	MemberID      int64   `json:"member_id"`
	Year          int     `json:"year"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[recordPaymentRequest](w, r, h.logger)
	if !ok {
		return
	}
	paymentDate, err := httputil.ParseDate(req.PaymentDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payment, err := h.dues.RecordPayment(r.Context(), actingFrom(r), service.RecordPaymentInput{
		MemberID:      req.MemberID,
		Year:          req.Year,
		Amount:        req.Amount,
		PaymentDate:   paymentDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err, "record payment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

type editPaymentRequest struct {
	Year          int     `json:"year"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id", "invalid payment id")
	if !ok {
		return
	}
	req, ok := httputil.Decode[editPaymentRequest](w, r, h.logger)
	if !ok {
		return
	}
	paymentDate, err := httputil.ParseDate(req.PaymentDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payment, err := h.dues.EditPayment(r.Context(), actingFrom(r), paymentID, service.EditPaymentInput{
		Year:          req.Year,
		Amount:        req.Amount,
		PaymentDate:   paymentDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err, "edit payment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payment)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id", "invalid payment id")
	if !ok {
		return
	}
	if err := h.dues.DeletePayment(r.Context(), actingFrom(r), paymentID); err != nil {
		h.writeError(w, r, err, "delete payment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListByMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(w, r, "id", "invalid member id")
	if !ok {
		return
	}
	payments, err := h.dues.ListByMember(r.Context(), memberID)
	if err != nil {
		h.writeError(w, r, err, "list payments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) handleListByYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid year"))
		return
	}
	payments, err := h.dues.ListByYear(r.Context(), year)
	if err != nil {
		h.writeError(w, r, err, "list payments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	httputil.WriteError(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request, param, message string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, message))
		return 0, false
	}
	return id, true
}

func actingFrom(r *http.Request) identity.Acting {
	acting, _ := identity.FromContext(r.Context())
	return acting
}
