package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubroster/internal/audit"
	auditmemory "clubroster/internal/audit/store/memory"
	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	memberstore "clubroster/internal/member/store"
	"clubroster/internal/platform/database"
	rolesstore "clubroster/internal/roles/store"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/requestcontext"
)

type RolesServiceSuite struct {
	suite.Suite

	ctx        context.Context
	now        time.Time
	roles      *rolesstore.Memory
	members    *memberstore.Memory
	auditStore *auditmemory.Store
	service    *Service
	acting     identity.Acting
	member     *membermodels.Member
}

func TestRolesServiceSuite(t *testing.T) {
	suite.Run(t, new(RolesServiceSuite))
}

func (s *RolesServiceSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.roles = rolesstore.NewMemory()
	s.members = memberstore.NewMemory()
	s.auditStore = auditmemory.New()
	s.acting = identity.Acting{CallSign: "K6ADM", IsAdmin: true}
	s.service = New(s.roles, s.members, database.NewMemoryTx(), audit.NewRecorder(s.auditStore))

	member, err := membermodels.NewMember("W6ABC", membermodels.ProfileFields{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	}, membermodels.MembershipIndividual, s.now, "hash", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(s.ctx, member))
	s.member = member
}

func (s *RolesServiceSuite) TestAddRole() {
	role, err := s.service.AddRole(s.ctx, s.acting, s.member.ID, "President", s.now, "")
	s.Require().NoError(err)

	s.NotZero(role.ID)
	s.True(role.IsCurrent)
	s.Nil(role.EndDate)

	entries, err := s.auditStore.ListByTarget(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("Added role: President", entries[0].Action)
}

func (s *RolesServiceSuite) TestAddRoleAllowsMultipleCurrent() {
	_, err := s.service.AddRole(s.ctx, s.acting, s.member.ID, "President", s.now, "")
	s.Require().NoError(err)
	_, err = s.service.AddRole(s.ctx, s.acting, s.member.ID, "Net Control", s.now, "")
	s.Require().NoError(err)

	current, err := s.service.ListCurrent(s.ctx)
	s.Require().NoError(err)
	s.Len(current, 2)
}

func (s *RolesServiceSuite) TestAddRoleValidation() {
	_, err := s.service.AddRole(s.ctx, s.acting, s.member.ID, "  ", s.now, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.AddRole(s.ctx, s.acting, 404, "President", s.now, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Equal(0, s.auditStore.Len())
}

func (s *RolesServiceSuite) TestEndRole() {
	role, err := s.service.AddRole(s.ctx, s.acting, s.member.ID, "President", s.now, "")
	s.Require().NoError(err)

	end := s.now.AddDate(1, 0, 0)
	ended, err := s.service.EndRole(s.ctx, s.acting, role.ID, end)
	s.Require().NoError(err)

	s.False(ended.IsCurrent)
	s.Require().NotNil(ended.EndDate)
	s.Equal(end, *ended.EndDate)

	// History is retained.
	history, err := s.service.ListByMember(s.ctx, s.member.ID)
	s.Require().NoError(err)
	s.Len(history, 1)

	entries, err := s.auditStore.ListByTarget(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.Equal("Ended role: President", entries[0].Action)
}

func (s *RolesServiceSuite) TestEndRoleTwiceFails() {
	role, err := s.service.AddRole(s.ctx, s.acting, s.member.ID, "President", s.now, "")
	s.Require().NoError(err)

	_, err = s.service.EndRole(s.ctx, s.acting, role.ID, s.now)
	s.Require().NoError(err)

	_, err = s.service.EndRole(s.ctx, s.acting, role.ID, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RolesServiceSuite) TestEndRoleMissing() {
	_, err := s.service.EndRole(s.ctx, s.acting, 404, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
