package models

import (
	"strings"
	"time"

	dErrors "clubroster/pkg/domain-errors"
)

// Role is one leadership-position interval in a member's history.
//
// Invariants:
//   - RoleName is non-empty
//   - IsCurrent implies EndDate is nil; ending a role sets EndDate and
//     clears the flag
//   - A member may hold several current roles at once (no exclusivity)
//   - History is retained: roles are ended, not deleted
type Role struct {
	ID        int64      `json:"id"`
	MemberID  int64      `json:"member_id"`
	RoleName  string     `json:"role_name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsCurrent bool       `json:"is_current"`
	Notes     string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRole validates and constructs a current role starting at startDate.
func NewRole(memberID int64, roleName string, startDate time.Time, notes string, now time.Time) (*Role, error) {
	if memberID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "member id is required")
	}
	if strings.TrimSpace(roleName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "role name is required")
	}
	if startDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidDate, "start date is required")
	}
	return &Role{
		MemberID:  memberID,
		RoleName:  strings.TrimSpace(roleName),
		StartDate: startDate,
		IsCurrent: true,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: now,
	}, nil
}

// CanEnd checks whether the role is still open.
func (r *Role) CanEnd() error {
	if !r.IsCurrent {
		return dErrors.New(dErrors.CodeInvariantViolation, "role has already ended")
	}
	return nil
}

// ApplyEnd closes the role as of endDate. Call CanEnd first.
func (r *Role) ApplyEnd(endDate time.Time) {
	r.EndDate = &endDate
	r.IsCurrent = false
}
