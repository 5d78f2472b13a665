//go:build integration

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/testutil/containers"
)

type RedisSessionSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisSessionStore
	ctx   context.Context
}

func (s *RedisSessionSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisSessionStore(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisSessionSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func TestRedisSessionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(RedisSessionSuite))
}

func (s *RedisSessionSuite) newSession(ttl time.Duration) Session {
	now := time.Now().UTC()
	return Session{
		ID:        uuid.NewString(),
		CallSign:  "W6ABC",
		IsAdmin:   true,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisSessionSuite) TestSaveAndFind() {
	session := s.newSession(time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, session))

	found, err := s.store.Find(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, found.ID)
	s.Equal("W6ABC", found.CallSign)
	s.True(found.IsAdmin)
}

func (s *RedisSessionSuite) TestSaveRejectsExpired() {
	session := s.newSession(-time.Minute)
	s.Require().ErrorIs(s.store.Save(s.ctx, session), sentinel.ErrConflict)
}

func (s *RedisSessionSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionSuite) TestDeleteRevokes() {
	session := s.newSession(time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, session))
	s.Require().NoError(s.store.Delete(s.ctx, session.ID))

	_, err := s.store.Find(s.ctx, session.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionSuite) TestSessionsExpireOnTheirOwn() {
	session := s.newSession(time.Second)
	s.Require().NoError(s.store.Save(s.ctx, session))

	time.Sleep(1500 * time.Millisecond)

	_, err := s.store.Find(s.ctx, session.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
