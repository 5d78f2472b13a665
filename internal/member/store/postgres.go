package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"clubroster/internal/member/models"
	"clubroster/pkg/platform/sentinel"
	txcontext "clubroster/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists members in PostgreSQL. Writes join a transaction carried
// in ctx when one is present.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const memberColumns = `
	id, call_sign, first_name, last_name, email, phone, address, city, state, zip_code,
	fcc_license_class, emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
	membership_type, join_date, is_active, is_admin, photo_url,
	password_hash, password_is_temporary, created_at, updated_at, last_contact
`

func (s *Postgres) Create(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (
			call_sign, first_name, last_name, email, phone, address, city, state, zip_code,
			fcc_license_class, emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
			membership_type, join_date, is_active, is_admin, photo_url,
			password_hash, password_is_temporary, created_at, updated_at, last_contact
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		member.CallSign,
		member.FirstName,
		member.LastName,
		member.Email,
		nullString(member.Phone),
		nullString(member.Address),
		nullString(member.City),
		nullString(member.State),
		nullString(member.ZipCode),
		nullString(member.FCCLicenseClass),
		nullString(member.EmergencyContactName),
		nullString(member.EmergencyContactPhone),
		nullString(member.EmergencyContactRelationship),
		member.MembershipType,
		nullTime(member.JoinDate),
		member.IsActive,
		member.IsAdmin,
		nullString(member.PhotoURL),
		member.PasswordHash,
		member.PasswordIsTemporary,
		member.CreatedAt,
		member.UpdatedAt,
		nullTime(member.LastContact),
	).Scan(&member.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, member *models.Member) error {
	query := `
		UPDATE members SET
			call_sign = $1, first_name = $2, last_name = $3, email = $4, phone = $5,
			address = $6, city = $7, state = $8, zip_code = $9, fcc_license_class = $10,
			emergency_contact_name = $11, emergency_contact_phone = $12, emergency_contact_relationship = $13,
			membership_type = $14, join_date = $15, is_active = $16, is_admin = $17, photo_url = $18,
			password_hash = $19, password_is_temporary = $20, updated_at = $21, last_contact = $22
		WHERE id = $23
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		member.CallSign,
		member.FirstName,
		member.LastName,
		member.Email,
		nullString(member.Phone),
		nullString(member.Address),
		nullString(member.City),
		nullString(member.State),
		nullString(member.ZipCode),
		nullString(member.FCCLicenseClass),
		nullString(member.EmergencyContactName),
		nullString(member.EmergencyContactPhone),
		nullString(member.EmergencyContactRelationship),
		member.MembershipType,
		nullTime(member.JoinDate),
		member.IsActive,
		member.IsAdmin,
		nullString(member.PhotoURL),
		member.PasswordHash,
		member.PasswordIsTemporary,
		member.UpdatedAt,
		nullTime(member.LastContact),
		member.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update member: %w", err)
	}
	return requireRow(result, "update member")
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *Postgres) FindByCallSign(ctx context.Context, callSign string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE call_sign = $1`
	return scanMember(s.execer(ctx).QueryRowContext(ctx, query, models.CanonicalCallSign(callSign)))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE LOWER(email) = LOWER($1)`
	return scanMember(s.execer(ctx).QueryRowContext(ctx, query, email))
}

func (s *Postgres) List(ctx context.Context, search string) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members`
	args := []any{}
	if search != "" {
		query += `
			WHERE call_sign ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY call_sign`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

// Delete removes the member row only; callers delete dependent rows first,
// inside the same transaction.
func (s *Postgres) Delete(ctx context.Context, id int64) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return requireRow(result, "delete member")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		member      models.Member
		phone       sql.NullString
		address     sql.NullString
		city        sql.NullString
		state       sql.NullString
		zipCode     sql.NullString
		license     sql.NullString
		ecName      sql.NullString
		ecPhone     sql.NullString
		ecRelation  sql.NullString
		joinDate    sql.NullTime
		photoURL    sql.NullString
		lastContact sql.NullTime
	)
	err := row.Scan(
		&member.ID,
		&member.CallSign,
		&member.FirstName,
		&member.LastName,
		&member.Email,
		&phone,
		&address,
		&city,
		&state,
		&zipCode,
		&license,
		&ecName,
		&ecPhone,
		&ecRelation,
		&member.MembershipType,
		&joinDate,
		&member.IsActive,
		&member.IsAdmin,
		&photoURL,
		&member.PasswordHash,
		&member.PasswordIsTemporary,
		&member.CreatedAt,
		&member.UpdatedAt,
		&lastContact,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}
	member.Phone = phone.String
	member.Address = address.String
	member.City = city.String
	member.State = state.String
	member.ZipCode = zipCode.String
	member.FCCLicenseClass = license.String
	member.EmergencyContactName = ecName.String
	member.EmergencyContactPhone = ecPhone.String
	member.EmergencyContactRelationship = ecRelation.String
	member.JoinDate = joinDate.Time
	member.PhotoURL = photoURL.String
	member.LastContact = lastContact.Time
	return &member, nil
}

func requireRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}
