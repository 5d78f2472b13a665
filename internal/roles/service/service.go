// Package service implements the role-history commands.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	"clubroster/internal/platform/metrics"
	"clubroster/internal/roles/models"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

// RoleStore is the persistence boundary for role history. Roles are ended,
// never deleted; DeleteByMember exists only for the member-deletion cascade.
type RoleStore interface {
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	FindByID(ctx context.Context, id int64) (*models.Role, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.Role, error)
	ListCurrent(ctx context.Context) ([]models.Role, error)
}

// MemberLookup resolves members for validation and audit targets.
type MemberLookup interface {
	FindByID(ctx context.Context, id int64) (*membermodels.Member, error)
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditRecorder interface {
	Record(ctx context.Context, acting identity.Acting, action, targetCallSign, details string) error
}

// Service implements the role commands of the administrative layer.
type Service struct {
	roles   RoleStore
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

func New(roles RoleStore, members MemberLookup, tx StoreTx, audit AuditRecorder, opts ...Option) *Service {
	s := &Service{
		roles:   roles,
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

// AddRole opens a new current role for a member. A member may hold several
// current roles at once.
func (s *Service) AddRole(ctx context.Context, acting identity.Acting, memberID int64, roleName string, startDate time.Time, notes string) (*models.Role, error) {
	now := requestcontext.Now(ctx)
	role, err := models.NewRole(memberID, roleName, startDate, notes, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		member, err := s.findMember(ctx, memberID)
		if err != nil {
			return err
		}
		if err := s.roles.Create(ctx, role); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "create role")
		}
		action := fmt.Sprintf("Added role: %s", role.RoleName)
		return s.audit.Record(ctx, acting, action, member.CallSign, "")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RolesAssigned.Inc()
	return role, nil
}

// EndRole closes an open role as of endDate. Ending an already-ended role
// fails; history is never rewritten.
func (s *Service) EndRole(ctx context.Context, acting identity.Acting, roleID int64, endDate time.Time) (*models.Role, error) {
	if endDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidDate, "end date is required")
	}

	var role *models.Role
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		role, err = s.roles.FindByID(ctx, roleID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "role not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "find role")
		}
		if err := role.CanEnd(); err != nil {
			return err
		}
		member, err := s.findMember(ctx, role.MemberID)
		if err != nil {
			return err
		}
		role.ApplyEnd(endDate)
		if err := s.roles.Update(ctx, role); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update role")
		}
		action := fmt.Sprintf("Ended role: %s", role.RoleName)
		return s.audit.Record(ctx, acting, action, member.CallSign, "")
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// ListByMember returns a member's full role history, most recent start first.
func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]models.Role, error) {
	roles, err := s.roles.ListByMember(ctx, memberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list roles")
	}
	return roles, nil
}

// ListCurrent returns every open role across all members.
func (s *Service) ListCurrent(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.ListCurrent(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list current roles")
	}
	return roles, nil
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
