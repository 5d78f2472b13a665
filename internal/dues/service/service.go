// Package service implements the dues-payment commands.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clubroster/internal/dues/models"
	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	"clubroster/internal/platform/metrics"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

// PaymentStore is the persistence boundary for dues payments.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	FindByMemberAndYear(ctx context.Context, memberID int64, year int) (*models.Payment, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.Payment, error)
	ListByYear(ctx context.Context, year int) ([]models.Payment, error)
}

// MemberLookup resolves members referenced by payments, for validation and
// for the call sign recorded in the admin log.
type MemberLookup interface {
	FindByID(ctx context.Context, id int64) (*membermodels.Member, error)
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditRecorder interface {
	Record(ctx context.Context, acting identity.Acting, action, targetCallSign, details string) error
}

// Service implements the dues commands of the administrative layer.
type Service struct {
	payments PaymentStore
	members  MemberLookup
	tx       StoreTx
	audit    AuditRecorder

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

func New(payments PaymentStore, members MemberLookup, tx StoreTx, audit AuditRecorder, opts ...Option) *Service {
	s := &Service{
		payments: payments,
		members:  members,
		tx:       tx,
		audit:    audit,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordPaymentInput carries the fields for RecordPayment.
type RecordPaymentInput struct {
	MemberID      int64
	Year          int
	Amount        float64
	PaymentDate   time.Time
	PaymentMethod string
	Notes         string
}

// RecordPayment records one dues payment for a (member, year) pair. At most
// one payment may exist per pair; the pre-check is backstopped by the
// store's uniqueness constraint in case two admins race.
func (s *Service) RecordPayment(ctx context.Context, acting identity.Acting, in RecordPaymentInput) (*models.Payment, error) {
	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	payment, err := models.NewPayment(in.MemberID, in.Year, in.Amount, in.PaymentDate, method, in.Notes, acting.Actor(), now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		member, err := s.findMember(ctx, in.MemberID)
		if err != nil {
			return err
		}
		if _, err := s.payments.FindByMemberAndYear(ctx, in.MemberID, in.Year); err == nil {
			return dErrors.Newf(dErrors.CodeDuplicatePayment, "payment for %d already recorded for %s", in.Year, member.CallSign)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "check existing payment")
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeDuplicatePayment, "payment for %d already recorded for %s", in.Year, member.CallSign)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "create payment")
		}
		action := fmt.Sprintf("Recorded dues payment for %d", in.Year)
		return s.audit.Record(ctx, acting, action, member.CallSign, fmt.Sprintf("Amount: $%.2f", in.Amount))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentsRecorded.Inc()
	s.logger.InfoContext(ctx, "dues payment recorded", "member_id", in.MemberID, "year", in.Year)
	return payment, nil
}

// EditPaymentInput carries the mutable payment fields for EditPayment.
type EditPaymentInput struct {
	Year          int
	Amount        float64
	PaymentDate   time.Time
	PaymentMethod string
	Notes         string
}

// EditPayment updates an existing payment in place. Moving a payment onto a
// (member, year) pair that already has one fails with DuplicatePayment.
func (s *Service) EditPayment(ctx context.Context, acting identity.Acting, paymentID int64, in EditPaymentInput) (*models.Payment, error) {
	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if in.Amount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount cannot be negative")
	}
	if in.PaymentDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidDate, "payment date is required")
	}

	var payment *models.Payment
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.findPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		member, err := s.findMember(ctx, payment.MemberID)
		if err != nil {
			return err
		}
		if in.Year != payment.Year {
			if existing, err := s.payments.FindByMemberAndYear(ctx, payment.MemberID, in.Year); err == nil && existing.ID != paymentID {
				return dErrors.Newf(dErrors.CodeDuplicatePayment, "payment for %d already recorded for %s", in.Year, member.CallSign)
			} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "check existing payment")
			}
		}
		payment.Year = in.Year
		payment.Amount = in.Amount
		payment.PaymentDate = in.PaymentDate
		payment.PaymentMethod = method
		payment.Notes = in.Notes
		if err := s.payments.Update(ctx, payment); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeDuplicatePayment, "payment for %d already recorded for %s", in.Year, member.CallSign)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "update payment")
		}
		action := fmt.Sprintf("Updated dues payment for %d", payment.Year)
		return s.audit.Record(ctx, acting, action, member.CallSign, "")
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// DeletePayment removes a payment by id.
func (s *Service) DeletePayment(ctx context.Context, acting identity.Acting, paymentID int64) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		payment, err := s.findPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		member, err := s.findMember(ctx, payment.MemberID)
		if err != nil {
			return err
		}
		if err := s.payments.Delete(ctx, paymentID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete payment")
		}
		action := fmt.Sprintf("Deleted dues payment for %d", payment.Year)
		return s.audit.Record(ctx, acting, action, member.CallSign, "")
	})
}

// ListByMember returns a member's payment history, most recent year first.
func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]models.Payment, error) {
	payments, err := s.payments.ListByMember(ctx, memberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list payments")
	}
	return payments, nil
}

// ListByYear returns every payment recorded for a dues year.
func (s *Service) ListByYear(ctx context.Context, year int) ([]models.Payment, error) {
	payments, err := s.payments.ListByYear(ctx, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list payments")
	}
	return payments, nil
}

func (s *Service) findPayment(ctx context.Context, paymentID int64) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find payment")
	}
	return payment, nil
}

func (s *Service) findMember(ctx context.Context, memberID int64) (*membermodels.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find member")
	}
	return member, nil
}
