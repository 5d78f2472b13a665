// Package service implements the administrative member commands.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clubroster/internal/credential"
	"clubroster/internal/identity"
	"clubroster/internal/member/models"
	"clubroster/internal/platform/metrics"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

// MemberStore is the persistence boundary for members. Implementations
// return sentinel errors which the service translates to coded errors.
type MemberStore interface {
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id int64) (*models.Member, error)
	FindByCallSign(ctx context.Context, callSign string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context, search string) ([]models.Member, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

// DependentStore deletes the rows a member owns. DeleteMember calls each
// dependent store inside one transaction, ordered before the member row.
type DependentStore interface {
	DeleteByMember(ctx context.Context, memberID int64) error
}

// StoreTx runs a function inside a transaction scope.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditRecorder appends admin-log entries.
type AuditRecorder interface {
	Record(ctx context.Context, acting identity.Acting, action, targetCallSign, details string) error
}

// Service implements the member commands of the administrative layer.
type Service struct {
	members    MemberStore
	dues       DependentStore
	attendance DependentStore
	roles      DependentStore
	tx         StoreTx
	audit      AuditRecorder
	hasher     credential.Hasher

	generateTemp    func() (string, error)
	initialPassword func(callSign string) string
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTempPasswordGenerator overrides the temporary-password source, used by
// tests that need deterministic credentials.
func WithTempPasswordGenerator(generate func() (string, error)) Option {
	return func(s *Service) { s.generateTemp = generate }
}

// WithInitialPassword overrides the club convention that a new member's
// first password is their call sign as typed.
func WithInitialPassword(fn func(callSign string) string) Option {
	return func(s *Service) { s.initialPassword = fn }
}

func New(members MemberStore, dues, attendance, roles DependentStore, tx StoreTx, audit AuditRecorder, hasher credential.Hasher, opts ...Option) *Service {
	s := &Service{
		members:         members,
		dues:            dues,
		attendance:      attendance,
		roles:           roles,
		tx:              tx,
		audit:           audit,
		hasher:          hasher,
		generateTemp:    credential.GenerateTemp,
		initialPassword: func(callSign string) string { return callSign },
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:         metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMemberInput carries the fields for CreateMember.
type CreateMemberInput struct {
	CallSign       string
	Profile        models.ProfileFields
	MembershipType string
	JoinDate       time.Time
}

// CreateMember persists a new member with a temporary password equal to the
// call sign as typed. The stored identifier is the canonical uppercase form.
func (s *Service) CreateMember(ctx context.Context, acting identity.Acting, in CreateMemberInput) (*models.Member, error) {
	membershipType, err := models.ParseMembershipType(in.MembershipType)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(s.initialPassword(in.CallSign))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash initial password")
	}
	now := requestcontext.Now(ctx)
	member, err := models.NewMember(in.CallSign, in.Profile, membershipType, in.JoinDate, hash, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.members.FindByCallSign(ctx, member.CallSign); err == nil {
			return dErrors.Newf(dErrors.CodeDuplicateCallSign, "call sign %s is already in use", member.CallSign)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "check call sign")
		}
		if err := s.members.Create(ctx, member); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeDuplicateCallSign, "call sign %s is already in use", member.CallSign)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "create member")
		}
		return s.audit.Record(ctx, acting, "Added new member", member.CallSign, "Initial password set to call sign")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MembersCreated.Inc()
	s.logger.InfoContext(ctx, "member created", "call_sign", member.CallSign, "member_id", member.ID)
	return member, nil
}

// UpdateProfile applies an admin edit of the member's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, acting identity.Acting, memberID int64, fields models.ProfileFields) (*models.Member, error) {
	now := requestcontext.Now(ctx)
	var member *models.Member
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		member, err = s.findMember(ctx, memberID)
		if err != nil {
			return err
		}
		member.ApplyProfile(fields, now)
		if err := s.members.Update(ctx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update member")
		}
		return s.audit.Record(ctx, acting, "Updated member information", member.CallSign, "")
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateMemberCallSign renames a member. Renaming to the current call sign is
// a no-op and writes no audit entry.
func (s *Service) UpdateMemberCallSign(ctx context.Context, acting identity.Acting, memberID int64, newCallSign string) (*models.Member, error) {
	canonical := models.CanonicalCallSign(newCallSign)
	if canonical == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "call sign cannot be empty")
	}
	if len(canonical) > 10 {
		return nil, dErrors.New(dErrors.CodeValidation, "call sign must be 10 characters or less")
	}

	now := requestcontext.Now(ctx)
	var member *models.Member
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		member, err = s.findMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member.CallSign == canonical {
			return nil
		}
		if _, err := s.members.FindByCallSign(ctx, canonical); err == nil {
			return dErrors.Newf(dErrors.CodeDuplicateCallSign, "call sign %s is already in use", canonical)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "check call sign")
		}
		previous := member.CallSign
		member.CallSign = canonical
		member.UpdatedAt = now
		if err := s.members.Update(ctx, member); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeDuplicateCallSign, "call sign %s is already in use", canonical)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "update member")
		}
		return s.audit.Record(ctx, acting, "Changed call sign", canonical, fmt.Sprintf("Previously %s", previous))
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ToggleAdmin flips the member's admin flag and logs the resulting state.
func (s *Service) ToggleAdmin(ctx context.Context, acting identity.Acting, memberID int64) (*models.Member, error) {
	now := requestcontext.Now(ctx)
	var member *models.Member
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		member, err = s.findMember(ctx, memberID)
		if err != nil {
			return err
		}
		action := "Revoked admin access"
		if member.ApplyAdminToggle(now) {
			action = "Granted admin access"
		}
		if err := s.members.Update(ctx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update member")
		}
		return s.audit.Record(ctx, acting, action, member.CallSign, "")
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ToggleActive flips the member's active flag and logs the resulting state.
func (s *Service) ToggleActive(ctx context.Context, acting identity.Acting, memberID int64) (*models.Member, error) {
	now := requestcontext.Now(ctx)
	var member *models.Member
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		member, err = s.findMember(ctx, memberID)
		if err != nil {
			return err
		}
		action := "Deactivated member"
		if member.ApplyActiveToggle(now) {
			action = "Activated member"
		}
		if err := s.members.Update(ctx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update member")
		}
		return s.audit.Record(ctx, acting, action, member.CallSign, "")
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ResetPassword sets a generated temporary password and returns the
// plaintext exactly once. Only the hash is stored.
func (s *Service) ResetPassword(ctx context.Context, acting identity.Acting, memberID int64) (string, error) {
	temp, err := s.generateTemp()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "generate temporary password")
	}
	hash, err := s.hasher.Hash(temp)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hash temporary password")
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		member, err := s.findMember(ctx, memberID)
		if err != nil {
			return err
		}
		member.PasswordHash = hash
		member.PasswordIsTemporary = true
		member.UpdatedAt = now
		if err := s.members.Update(ctx, member); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update member")
		}
		return s.audit.Record(ctx, acting, "Reset password", member.CallSign, "")
	})
	if err != nil {
		return "", err
	}
	return temp, nil
}

// DeleteMember removes a member and everything it owns: dues payments,
// attendance records and role history go first, then the member row, all in
// one transaction. Admin-log entries naming the call sign are kept.
func (s *Service) DeleteMember(ctx context.Context, acting identity.Acting, memberID int64) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		member, err := s.findMember(ctx, memberID)
		if err != nil {
			return err
		}
		for _, dependents := range []DependentStore{s.dues, s.attendance, s.roles} {
			if err := dependents.DeleteByMember(ctx, memberID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "delete dependent records")
			}
		}
		if err := s.members.Delete(ctx, memberID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete member")
		}
		return s.audit.Record(ctx, acting, "Deleted member", member.CallSign, "")
	})
	if err != nil {
		return err
	}

	s.metrics.MembersDeleted.Inc()
	s.logger.InfoContext(ctx, "member deleted", "member_id", memberID)
	return nil
}

// GetMember looks up a member by id.
func (s *Service) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	return s.findMember(ctx, memberID)
}

// GetMemberByCallSign looks up a member by call sign in any case form.
func (s *Service) GetMemberByCallSign(ctx context.Context, callSign string) (*models.Member, error) {
	member, err := s.members.FindByCallSign(ctx, callSign)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find member")
	}
	return member, nil
}

// ListMembers returns members ordered by call sign, optionally filtered by a
// search term over call sign, names and email.
func (s *Service) ListMembers(ctx context.Context, search string) ([]models.Member, error) {
	members, err := s.members.List(ctx, search)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list members")
	}
	return members, nil
}

func (s *Service) findMember(ctx context.Context, memberID int64) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find member")
	}
	return member, nil
}
