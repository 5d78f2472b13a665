// Package auth implements self-service operations: login, logout, password
// change and profile edits by the member themself.
package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clubroster/internal/credential"
	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	"clubroster/internal/platform/metrics"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

// DefaultSessionTTL bounds how long a login stays valid without re-auth.
const DefaultSessionTTL = 12 * time.Hour

// MemberStore supplies the member reads and writes auth needs.
type MemberStore interface {
	FindByCallSign(ctx context.Context, callSign string) (*membermodels.Member, error)
	Update(ctx context.Context, member *membermodels.Member) error
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements authentication and member self-service.
type Service struct {
	members  MemberStore
	sessions SessionStore
	tx       StoreTx
	hasher   credential.Hasher
	tokens   *TokenIssuer

	sessionTTL time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

func New(members MemberStore, sessions SessionStore, tx StoreTx, hasher credential.Hasher, tokens *TokenIssuer, opts ...Option) *Service {
	s := &Service{
		members:    members,
		sessions:   sessions,
		tx:         tx,
		hasher:     hasher,
		tokens:     tokens,
		sessionTTL: DefaultSessionTTL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is returned once per successful login. MustChangePassword is
// set when the member is still on a temporary password.
type LoginResult struct {
	Token              string
	Member             *membermodels.Member
	MustChangePassword bool
}

var errBadCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid call sign or password")

// Login verifies the credentials, bumps the member's last-contact timestamp
// and issues a session token. Unknown call signs and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, callSign, password string) (*LoginResult, error) {
	member, err := s.members.FindByCallSign(ctx, callSign)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.LoginFailures.Inc()
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find member")
	}
	if err := s.hasher.Verify(password, member.PasswordHash); err != nil {
		s.metrics.LoginFailures.Inc()
		s.logger.WarnContext(ctx, "login rejected", "call_sign", member.CallSign)
		return nil, errBadCredentials
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		member.LastContact = now
		if err := s.members.Update(ctx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update last contact")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session := Session{
		ID:        uuid.NewString(),
		CallSign:  member.CallSign,
		IsAdmin:   member.IsAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save session")
	}
	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue session token")
	}

	s.metrics.Logins.Inc()
	s.logger.InfoContext(ctx, "login", "call_sign", member.CallSign)
	return &LoginResult{
		Token:              token,
		Member:             member,
		MustChangePassword: member.PasswordIsTemporary,
	}, nil
}

// Authenticate resolves a bearer token into an acting identity. The session
// must still exist server-side, so logged-out tokens fail here.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.Acting, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return identity.Acting{}, err
	}
	if _, err := s.sessions.Find(ctx, claims.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.Acting{}, dErrors.New(dErrors.CodeUnauthorized, "session expired")
		}
		return identity.Acting{}, dErrors.Wrap(err, dErrors.CodeInternal, "find session")
	}
	return identity.Acting{CallSign: claims.CallSign, IsAdmin: claims.IsAdmin}, nil
}

// Logout revokes the token's session. Revoking an already-dead session is
// not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete session")
	}
	return nil
}

// ChangePassword replaces the member's password after verifying the current
// one. A successful change clears the temporary flag.
func (s *Service) ChangePassword(ctx context.Context, callSign, currentPassword, newPassword, confirmPassword string) error {
	member, err := s.findMember(ctx, callSign)
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(currentPassword, member.PasswordHash); err != nil {
		return dErrors.New(dErrors.CodePasswordMismatch, "current password is incorrect")
	}
	if newPassword != confirmPassword {
		return dErrors.New(dErrors.CodePasswordMismatch, "new passwords do not match")
	}
	if err := credential.Validate(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		member.PasswordHash = hash
		member.PasswordIsTemporary = false
		member.UpdatedAt = now
		if err := s.members.Update(ctx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update member")
		}
		return nil
	})
}

// UpdateOwnProfile applies a self-service edit of the member's own profile
// and contact details.
func (s *Service) UpdateOwnProfile(ctx context.Context, callSign string, fields membermodels.ProfileFields) (*membermodels.Member, error) {
	member, err := s.findMember(ctx, callSign)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		member.ApplyProfile(fields, now)
		member.LastContact = now
		if err := s.members.Update(ctx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update member")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Profile returns the member's own record.
func (s *Service) Profile(ctx context.Context, callSign string) (*membermodels.Member, error) {
	return s.findMember(ctx, callSign)
}

func (s *Service) findMember(ctx context.Context, callSign string) (*membermodels.Member, error) {
	member, err := s.members.FindByCallSign(ctx, callSign)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find member")
	}
	return member, nil
}
