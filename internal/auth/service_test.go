package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubroster/internal/credential"
	membermodels "clubroster/internal/member/models"
	memberstore "clubroster/internal/member/store"
	"clubroster/internal/platform/database"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite

	ctx      context.Context
	now      time.Time
	members  *memberstore.Memory
	sessions *MemorySessionStore
	service  *Service
	member   *membermodels.Member
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.members = memberstore.NewMemory()
	s.sessions = NewMemorySessionStore()
	hasher := credential.NewBcryptHasher()
	s.service = New(s.members, s.sessions, database.NewMemoryTx(), hasher, NewTokenIssuer([]byte("test-secret")))

	// Member on a temporary password equal to their call sign.
	hash, err := hasher.Hash("W6ABC")
	s.Require().NoError(err)
	member, err := membermodels.NewMember("W6ABC", membermodels.ProfileFields{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	}, membermodels.MembershipIndividual, s.now.AddDate(-1, 0, 0), hash, s.now.AddDate(-1, 0, 0))
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(s.ctx, member))
	s.member = member
}

func (s *AuthServiceSuite) TestLoginSignalsTemporaryPassword() {
	result, err := s.service.Login(s.ctx, "w6abc", "W6ABC")
	s.Require().NoError(err)

	s.NotEmpty(result.Token)
	s.True(result.MustChangePassword)
	s.Equal(s.now, result.Member.LastContact, "login bumps last contact")
}

func (s *AuthServiceSuite) TestLoginRejectsBadCredentials() {
	_, err := s.service.Login(s.ctx, "W6ABC", "wrong")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.Login(s.ctx, "NOBODY", "whatever")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestAuthenticateRoundTrip() {
	result, err := s.service.Login(s.ctx, "W6ABC", "W6ABC")
	s.Require().NoError(err)

	acting, err := s.service.Authenticate(s.ctx, result.Token)
	s.Require().NoError(err)
	s.Equal("W6ABC", acting.CallSign)
	s.False(acting.IsAdmin)
}

func (s *AuthServiceSuite) TestLogoutRevokesSession() {
	result, err := s.service.Login(s.ctx, "W6ABC", "W6ABC")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, result.Token))

	_, err = s.service.Authenticate(s.ctx, result.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestAuthenticateRejectsGarbage() {
	_, err := s.service.Authenticate(s.ctx, "not-a-token")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestChangePassword() {
	err := s.service.ChangePassword(s.ctx, "W6ABC", "W6ABC", "LongEnough1!", "LongEnough1!")
	s.Require().NoError(err)

	stored, err := s.members.FindByCallSign(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.False(stored.PasswordIsTemporary)

	result, err := s.service.Login(s.ctx, "W6ABC", "LongEnough1!")
	s.Require().NoError(err)
	s.False(result.MustChangePassword)
}

func (s *AuthServiceSuite) TestChangePasswordChecks() {
	err := s.service.ChangePassword(s.ctx, "W6ABC", "wrong", "LongEnough1!", "LongEnough1!")
	s.True(dErrors.HasCode(err, dErrors.CodePasswordMismatch))

	err = s.service.ChangePassword(s.ctx, "W6ABC", "W6ABC", "LongEnough1!", "Different1!")
	s.True(dErrors.HasCode(err, dErrors.CodePasswordMismatch))

	err = s.service.ChangePassword(s.ctx, "W6ABC", "W6ABC", "short1!", "short1!")
	s.True(dErrors.HasCode(err, dErrors.CodeWeakPassword))

	// Nothing above may have touched the stored credential.
	result, err := s.service.Login(s.ctx, "W6ABC", "W6ABC")
	s.Require().NoError(err)
	s.True(result.MustChangePassword)
}

func (s *AuthServiceSuite) TestUpdateOwnProfile() {
	updated, err := s.service.UpdateOwnProfile(s.ctx, "W6ABC", membermodels.ProfileFields{
		FirstName:             "Ada",
		LastName:              "Lovelace",
		Email:                 "ada@example.com",
		Phone:                 "555-0100",
		EmergencyContactName:  "Charles Babbage",
		EmergencyContactPhone: "555-0101",
	})
	s.Require().NoError(err)
	s.Equal("555-0100", updated.Phone)
	s.Equal("Charles Babbage", updated.EmergencyContactName)
	s.Equal(s.now, updated.LastContact)
}
