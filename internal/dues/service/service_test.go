package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubroster/internal/audit"
	auditmemory "clubroster/internal/audit/store/memory"
	duesstore "clubroster/internal/dues/store"
	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	memberstore "clubroster/internal/member/store"
	"clubroster/internal/platform/database"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/requestcontext"
)

type DuesServiceSuite struct {
	suite.Suite

	ctx        context.Context
	now        time.Time
	payments   *duesstore.Memory
	members    *memberstore.Memory
	auditStore *auditmemory.Store
	service    *Service
	acting     identity.Acting
	member     *membermodels.Member
}

func TestDuesServiceSuite(t *testing.T) {
	suite.Run(t, new(DuesServiceSuite))
}

func (s *DuesServiceSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.payments = duesstore.NewMemory()
	s.members = memberstore.NewMemory()
	s.auditStore = auditmemory.New()
	s.acting = identity.Acting{CallSign: "K6ADM", IsAdmin: true}
	s.service = New(s.payments, s.members, database.NewMemoryTx(), audit.NewRecorder(s.auditStore))

	member, err := membermodels.NewMember("W6ABC", membermodels.ProfileFields{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	}, membermodels.MembershipIndividual, s.now, "hash", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(s.ctx, member))
	s.member = member
}

func (s *DuesServiceSuite) record(year int) *RecordPaymentInput {
	return &RecordPaymentInput{
		MemberID:    s.member.ID,
		Year:        year,
		Amount:      25,
		PaymentDate: s.now,
	}
}

func (s *DuesServiceSuite) TestRecordPayment() {
	payment, err := s.service.RecordPayment(s.ctx, s.acting, *s.record(2024))
	s.Require().NoError(err)

	s.NotZero(payment.ID)
	s.Equal("K6ADM", payment.CreatedBy)
	s.Equal("PayPal", string(payment.PaymentMethod)) // empty method defaults

	entries, err := s.auditStore.ListByTarget(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("Recorded dues payment for 2024", entries[0].Action)
	s.Equal("Amount: $25.00", entries[0].Details)
}

func (s *DuesServiceSuite) TestRecordPaymentDuplicateYear() {
	_, err := s.service.RecordPayment(s.ctx, s.acting, *s.record(2024))
	s.Require().NoError(err)
	logged := s.auditStore.Len()

	_, err = s.service.RecordPayment(s.ctx, s.acting, *s.record(2024))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicatePayment))
	s.Equal(logged, s.auditStore.Len(), "failed command must not be logged")
}

func (s *DuesServiceSuite) TestRecordPaymentValidation() {
	in := *s.record(2024)
	in.Amount = -1
	_, err := s.service.RecordPayment(s.ctx, s.acting, in)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	in = *s.record(2024)
	in.PaymentDate = time.Time{}
	_, err = s.service.RecordPayment(s.ctx, s.acting, in)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidDate))

	in = *s.record(2024)
	in.MemberID = 404
	_, err = s.service.RecordPayment(s.ctx, s.acting, in)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Equal(0, s.auditStore.Len())
}

func (s *DuesServiceSuite) TestEditPaymentMoveToTakenYear() {
	first, err := s.service.RecordPayment(s.ctx, s.acting, *s.record(2023))
	s.Require().NoError(err)
	_, err = s.service.RecordPayment(s.ctx, s.acting, *s.record(2024))
	s.Require().NoError(err)

	_, err = s.service.EditPayment(s.ctx, s.acting, first.ID, EditPaymentInput{
		Year:        2024,
		Amount:      30,
		PaymentDate: s.now,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicatePayment))
}

func (s *DuesServiceSuite) TestEditPayment() {
	payment, err := s.service.RecordPayment(s.ctx, s.acting, *s.record(2024))
	s.Require().NoError(err)

	updated, err := s.service.EditPayment(s.ctx, s.acting, payment.ID, EditPaymentInput{
		Year:          2024,
		Amount:        30,
		PaymentDate:   s.now,
		PaymentMethod: "Check",
		Notes:         "late fee waived",
	})
	s.Require().NoError(err)
	s.Equal(30.0, updated.Amount)
	s.Equal("Check", string(updated.PaymentMethod))

	entries, err := s.auditStore.ListByTarget(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.Equal("Updated dues payment for 2024", entries[0].Action)
}

func (s *DuesServiceSuite) TestDeletePayment() {
	payment, err := s.service.RecordPayment(s.ctx, s.acting, *s.record(2024))
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeletePayment(s.ctx, s.acting, payment.ID))

	err = s.service.DeletePayment(s.ctx, s.acting, payment.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	payments, err := s.service.ListByMember(s.ctx, s.member.ID)
	s.Require().NoError(err)
	s.Empty(payments)
}
