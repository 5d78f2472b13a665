// Package service implements the meeting-attendance commands.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clubroster/internal/attendance/models"
	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	"clubroster/internal/platform/metrics"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

const dateFormat = "2006-01-02"

// RecordStore is the persistence boundary for attendance records.
// ReplaceForDate must be atomic: partial batches are never observable.
type RecordStore interface {
	ReplaceForDate(ctx context.Context, meetingDate time.Time, records []*models.Record) error
	Delete(ctx context.Context, id int64) error
	DeleteForDate(ctx context.Context, meetingDate time.Time) error
	FindByID(ctx context.Context, id int64) (*models.Record, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.Record, error)
	ListByDate(ctx context.Context, meetingDate time.Time) ([]models.Record, error)
	ListRecentDates(ctx context.Context, limit int) ([]models.DateSummary, error)
}

// MemberLookup resolves members referenced in a batch.
type MemberLookup interface {
	FindByID(ctx context.Context, id int64) (*membermodels.Member, error)
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditRecorder interface {
	Record(ctx context.Context, acting identity.Acting, action, targetCallSign, details string) error
}

// Service implements the attendance commands of the administrative layer.
type Service struct {
	records RecordStore
	members MemberLookup
	tx      StoreTx
	audit   AuditRecorder

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(records RecordStore, members MemberLookup, tx StoreTx, audit AuditRecorder, opts ...Option) *Service {
	s := &Service{
		records: records,
		members: members,
		tx:      tx,
		audit:   audit,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordBatchInput carries the fields for RecordBatch.
type RecordBatchInput struct {
	MeetingDate time.Time
	EventType   string
	EventName   string
	Notes       string
	MemberIDs   []int64
}

// RecordBatch replaces the entire attendance set for a date: existing rows
// for that date are deleted and one row per supplied member is inserted,
// atomically. Recording an empty batch clears the date.
func (s *Service) RecordBatch(ctx context.Context, acting identity.Acting, in RecordBatchInput) ([]models.Record, error) {
	if in.MeetingDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidDate, "meeting date is required")
	}
	eventType, err := models.ParseEventType(in.EventType)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var out []models.Record
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		records := make([]*models.Record, 0, len(in.MemberIDs))
		for _, memberID := range in.MemberIDs {
			if _, err := s.members.FindByID(ctx, memberID); err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.Newf(dErrors.CodeNotFound, "member %d not found", memberID)
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "find member")
			}
			records = append(records, &models.Record{
				MemberID:    memberID,
				MeetingDate: in.MeetingDate,
				Attended:    true,
				EventType:   eventType,
				EventName:   in.EventName,
				Notes:       in.Notes,
				CreatedAt:   now,
				RecordedBy:  acting.Actor(),
			})
		}
		if err := s.records.ReplaceForDate(ctx, in.MeetingDate, records); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "replace attendance")
		}
		out = make([]models.Record, 0, len(records))
		for _, record := range records {
			out = append(out, *record)
		}
		details := fmt.Sprintf("Date: %s, Type: %s, Attendees: %d",
			in.MeetingDate.Format(dateFormat), eventType, len(records))
		return s.audit.Record(ctx, acting, "Recorded meeting attendance", "", details)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AttendanceBatches.Inc()
	s.logger.InfoContext(ctx, "attendance recorded",
		"meeting_date", in.MeetingDate.Format(dateFormat), "attendees", len(out))
	return out, nil
}

// RemoveAttendee deletes a single attendance row.
func (s *Service) RemoveAttendee(ctx context.Context, acting identity.Acting, recordID int64) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		record, err := s.records.FindByID(ctx, recordID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "attendance record not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "find attendance record")
		}
		target := ""
		if member, err := s.members.FindByID(ctx, record.MemberID); err == nil {
			target = member.CallSign
		}
		if err := s.records.Delete(ctx, recordID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete attendance record")
		}
		details := fmt.Sprintf("Date: %s", record.MeetingDate.Format(dateFormat))
		return s.audit.Record(ctx, acting, "Removed attendee from event", target, details)
	})
}

// DeleteForDate removes every attendance row for a date.
func (s *Service) DeleteForDate(ctx context.Context, acting identity.Acting, meetingDate time.Time) error {
	if meetingDate.IsZero() {
		return dErrors.New(dErrors.CodeInvalidDate, "meeting date is required")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.records.DeleteForDate(ctx, meetingDate); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete attendance for date")
		}
		details := fmt.Sprintf("Date: %s", meetingDate.Format(dateFormat))
		return s.audit.Record(ctx, acting, "Deleted attendance record", "", details)
	})
}

// ListByDate returns the attendance rows for one date.
func (s *Service) ListByDate(ctx context.Context, meetingDate time.Time) ([]models.Record, error) {
	records, err := s.records.ListByDate(ctx, meetingDate)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list attendance")
	}
	return records, nil
}

// ListByMember returns a member's attendance history, most recent first.
func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]models.Record, error) {
	records, err := s.records.ListByMember(ctx, memberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list attendance")
	}
	return records, nil
}

// RecentDates summarizes the most recent dates with recorded attendance.
func (s *Service) RecentDates(ctx context.Context, limit int) ([]models.DateSummary, error) {
	summaries, err := s.records.ListRecentDates(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list attendance dates")
	}
	return summaries, nil
}
