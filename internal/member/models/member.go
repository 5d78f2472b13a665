package models

import (
	"fmt"
	"strings"
	"time"

	dErrors "clubroster/pkg/domain-errors"
)

// Member is the aggregate root for a club member.
//
// Invariants:
//   - CallSign is non-empty, at most 10 characters, and stored in its
//     canonical uppercase form; it is globally unique
//   - FirstName, LastName and Email are non-empty
//   - PasswordHash holds a bcrypt hash, never plaintext
//
// # Cascade Invariant
//
// A member exclusively owns its dues payments, role history and attendance
// records: deleting a member deletes all three collections in one
// transaction. Admin log entries reference members by call sign only (a
// denormalized back-reference) so they survive deletion.
type Member struct {
	ID        int64  `json:"id"`
	CallSign  string `json:"call_sign"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zip_code,omitempty"`

	FCCLicenseClass string `json:"fcc_license_class,omitempty"`

	EmergencyContactName         string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone        string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship,omitempty"`

	MembershipType MembershipType `json:"membership_type"`
	JoinDate       time.Time      `json:"join_date"`
	IsActive       bool           `json:"is_active"`
	IsAdmin        bool           `json:"is_admin"`

	PhotoURL string `json:"photo_url,omitempty"`

	PasswordHash        string `json:"-"`
	PasswordIsTemporary bool   `json:"password_is_temporary"`

	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastContact time.Time `json:"last_contact"`
}

// MembershipType enumerates dues categories.
type MembershipType string

const (
	MembershipIndividual MembershipType = "Individual"
	MembershipFamily     MembershipType = "Family"
	MembershipLifetime   MembershipType = "Lifetime"
	MembershipExtra      MembershipType = "Extra"
)

var membershipTypes = map[MembershipType]struct{}{
	MembershipIndividual: {},
	MembershipFamily:     {},
	MembershipLifetime:   {},
	MembershipExtra:      {},
}

// ParseMembershipType validates a membership type string, defaulting empty
// input to Individual.
func ParseMembershipType(s string) (MembershipType, error) {
	if strings.TrimSpace(s) == "" {
		return MembershipIndividual, nil
	}
	mt := MembershipType(s)
	if _, ok := membershipTypes[mt]; !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown membership type %q", s)
	}
	return mt, nil
}

// CanonicalCallSign returns the canonical (trimmed, uppercase) form of a call
// sign. All lookups and uniqueness checks operate on this form.
func CanonicalCallSign(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FullName returns the member's display name.
func (m *Member) FullName() string {
	return fmt.Sprintf("%s %s", m.FirstName, m.LastName)
}

// ApplyAdminToggle flips the admin flag and reports the resulting state.
func (m *Member) ApplyAdminToggle(now time.Time) bool {
	m.IsAdmin = !m.IsAdmin
	m.UpdatedAt = now
	return m.IsAdmin
}

// ApplyActiveToggle flips the active flag and reports the resulting state.
func (m *Member) ApplyActiveToggle(now time.Time) bool {
	m.IsActive = !m.IsActive
	m.UpdatedAt = now
	return m.IsActive
}

// NewMember constructs a member with its creation-time defaults: active,
// non-admin, temporary credentials. The caller supplies the already-hashed
// initial password.
func NewMember(callSign string, fields ProfileFields, membershipType MembershipType, joinDate time.Time, passwordHash string, now time.Time) (*Member, error) {
	canonical := CanonicalCallSign(callSign)
	if canonical == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "call sign cannot be empty")
	}
	if len(canonical) > 10 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "call sign must be 10 characters or less")
	}
	if strings.TrimSpace(fields.FirstName) == "" || strings.TrimSpace(fields.LastName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "first and last name are required")
	}
	if strings.TrimSpace(fields.Email) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is required")
	}
	if joinDate.IsZero() {
		joinDate = now
	}

	m := &Member{
		CallSign:            canonical,
		MembershipType:      membershipType,
		JoinDate:            joinDate,
		IsActive:            true,
		IsAdmin:             false,
		PasswordHash:        passwordHash,
		PasswordIsTemporary: true,
		CreatedAt:           now,
		UpdatedAt:           now,
		LastContact:         now,
	}
	m.ApplyProfile(fields, now)
	return m, nil
}

// ProfileFields carries the mutable profile attributes shared by admin edits
// and self-service edits.
type ProfileFields struct {
	FirstName                    string `json:"first_name"`
	LastName                     string `json:"last_name"`
	Email                        string `json:"email"`
	Phone                        string `json:"phone"`
	Address                      string `json:"address"`
	City                         string `json:"city"`
	State                        string `json:"state"`
	ZipCode                      string `json:"zip_code"`
	FCCLicenseClass              string `json:"fcc_license_class"`
	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactPhone        string `json:"emergency_contact_phone"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship"`
}

// ApplyProfile overwrites the profile attributes and bumps the update
// timestamps.
func (m *Member) ApplyProfile(fields ProfileFields, now time.Time) {
	m.FirstName = strings.TrimSpace(fields.FirstName)
	m.LastName = strings.TrimSpace(fields.LastName)
	m.Email = strings.TrimSpace(fields.Email)
	m.Phone = strings.TrimSpace(fields.Phone)
	m.Address = strings.TrimSpace(fields.Address)
	m.City = strings.TrimSpace(fields.City)
	m.State = strings.TrimSpace(fields.State)
	m.ZipCode = strings.TrimSpace(fields.ZipCode)
	m.FCCLicenseClass = strings.TrimSpace(fields.FCCLicenseClass)
	m.EmergencyContactName = strings.TrimSpace(fields.EmergencyContactName)
	m.EmergencyContactPhone = strings.TrimSpace(fields.EmergencyContactPhone)
	m.EmergencyContactRelationship = strings.TrimSpace(fields.EmergencyContactRelationship)
	m.UpdatedAt = now
}
