//go:build integration

package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubroster/internal/member/models"
	"clubroster/internal/platform/database"
	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	tx    *database.Tx
	ctx   context.Context
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.tx = database.NewTx(s.pg.DB, 10*time.Second)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) newMember(callSign string) *models.Member {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Member{
		CallSign:       callSign,
		FirstName:      "Test",
		LastName:       "Member",
		Email:          strings.ToLower(callSign) + "@example.com",
		MembershipType: models.MembershipIndividual,
		JoinDate:       now,
		IsActive:       true,
		PasswordHash:   "x",
		CreatedAt:      now,
		UpdatedAt:      now,
		LastContact:    now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	member := s.newMember("W6ABC")
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, member)
	})
	s.Require().NoError(err)
	s.Require().NotZero(member.ID)

	found, err := s.store.FindByCallSign(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.Equal(member.ID, found.ID)
	s.Equal("w6abc@example.com", found.Email)

	byEmail, err := s.store.FindByEmail(s.ctx, "W6ABC@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Equal(member.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestCreateDuplicateCallSign() {
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, s.newMember("W6ABC"))
	})
	s.Require().NoError(err)

	err = s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, s.newMember("W6ABC"))
	})
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestUpdateMissingRow() {
	member := s.newMember("W6ABC")
	member.ID = 9999
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.store.Update(ctx, member)
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListSearch() {
	for _, cs := range []string{"W6ABC", "K6XYZ", "N6QRP"} {
		err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
			return s.store.Create(ctx, s.newMember(cs))
		})
		s.Require().NoError(err)
	}

	all, err := s.store.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 3)
	s.Equal("K6XYZ", all[0].CallSign)

	matched, err := s.store.List(s.ctx, "qrp")
	s.Require().NoError(err)
	s.Require().Len(matched, 1)
	s.Equal("N6QRP", matched[0].CallSign)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *PostgresStoreSuite) TestDelete() {
	member := s.newMember("W6ABC")
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, member)
	})
	s.Require().NoError(err)

	err = s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.store.Delete(ctx, member.ID)
	})
	s.Require().NoError(err)

	_, err = s.store.FindByID(s.ctx, member.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
