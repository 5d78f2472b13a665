// Package handler exposes the admin attendance endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clubroster/internal/attendance/models"
	"clubroster/internal/attendance/service"
	"clubroster/internal/identity"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/httputil"
)

type Service interface {
	RecordBatch(ctx context.Context, acting identity.Acting, in service.RecordBatchInput) ([]models.Record, error)
	RemoveAttendee(ctx context.Context, acting identity.Acting, recordID int64) error
	DeleteForDate(ctx context.Context, acting identity.Acting, meetingDate time.Time) error
	ListByDate(ctx context.Context, meetingDate time.Time) ([]models.Record, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.Record, error)
	RecentDates(ctx context.Context, limit int) ([]models.DateSummary, error)
}

const defaultRecentDates = 20

type Handler struct {
	attendance Service
	logger     *slog.Logger
}

func New(attendance Service, logger *slog.Logger) *Handler {
	return &Handler{attendance: attendance, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/attendance", h.handleRecordBatch)
	r.Get("/attendance", h.handleRecent)
	r.Get("/attendance/{date}", h.handleListByDate)
	r.Delete("/attendance/{date}", h.handleDeleteForDate)
	r.Delete("/attendance/records/{id}", h.handleRemoveAttendee)
	r.Get("/members/{id}/attendance", h.handleListByMember)
}

type recordBatchRequest struct {
	MeetingDate string  `json:"meeting_date"`
	EventType   string  `json:"event_type"`
	EventName   string  `json:"event_name"`
	Notes       string  `json:"notes"`
	MemberIDs   []int64 `json:"member_ids"`
}

func (h *Handler) handleRecordBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[recordBatchRequest](w, r, h.logger)
	if !ok {
		return
	}
	meetingDate, err := httputil.ParseDate(req.MeetingDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.attendance.RecordBatch(r.Context(), actingFrom(r), service.RecordBatchInput{
		MeetingDate: meetingDate,
		EventType:   req.EventType,
		EventName:   req.EventName,
		Notes:       req.Notes,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		h.writeError(w, r, err, "record attendance")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"records": records})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentDates
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}
	summaries, err := h.attendance.RecentDates(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err, "list attendance dates")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"dates": summaries})
}

func (h *Handler) handleListByDate(w http.ResponseWriter, r *http.Request) {
	meetingDate, ok := h.meetingDate(w, r)
	if !ok {
		return
	}
	records, err := h.attendance.ListByDate(r.Context(), meetingDate)
	if err != nil {
		h.writeError(w, r, err, "list attendance")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) handleDeleteForDate(w http.ResponseWriter, r *http.Request) {
	meetingDate, ok := h.meetingDate(w, r)
	if !ok {
		return
	}
	if err := h.attendance.DeleteForDate(r.Context(), actingFrom(r), meetingDate); err != nil {
		h.writeError(w, r, err, "delete attendance")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveAttendee(w http.ResponseWriter, r *http.Request) {
	recordID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}
	if err := h.attendance.RemoveAttendee(r.Context(), actingFrom(r), recordID); err != nil {
		h.writeError(w, r, err, "remove attendee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListByMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return
	}
	records, err := h.attendance.ListByMember(r.Context(), memberID)
	if err != nil {
		h.writeError(w, r, err, "list attendance")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) meetingDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	meetingDate, err := httputil.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		httputil.WriteError(w, err)
		return time.Time{}, false
	}
	return meetingDate, true
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
