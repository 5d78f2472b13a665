package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubroster/internal/roles/models"
	"clubroster/pkg/platform/sentinel"
	txcontext "clubroster/pkg/platform/tx"
)

// Postgres persists role history in PostgreSQL.
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

const roleColumns = `id, member_id, role_name, start_date, end_date, is_current, notes, created_at`

func (s *Postgres) Create(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO role_history (member_id, role_name, start_date, end_date, is_current, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		role.MemberID,
		role.RoleName,
		role.StartDate,
		role.EndDate,
		role.IsCurrent,
		nullString(role.Notes),
		role.CreatedAt,
	).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, role *models.Role) error {
	query := `
		UPDATE role_history
		SET role_name = $1, start_date = $2, end_date = $3, is_current = $4, notes = $5
		WHERE id = $6
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		role.RoleName,
		role.StartDate,
		role.EndDate,
		role.IsCurrent,
		nullString(role.Notes),
		role.ID,
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM role_history WHERE id = $1`
	return scanRole(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *Postgres) ListByMember(ctx context.Context, memberID int64) ([]models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM role_history WHERE member_id = $1 ORDER BY start_date DESC`
	return s.queryRoles(ctx, query, memberID)
}

func (s *Postgres) ListCurrent(ctx context.Context) ([]models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM role_history WHERE is_current ORDER BY role_name, member_id`
	return s.queryRoles(ctx, query)
}

func (s *Postgres) DeleteByMember(ctx context.Context, memberID int64) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM role_history WHERE member_id = $1`, memberID)
	if err != nil {
		return fmt.Errorf("delete roles for member: %w", err)
	}
	return nil
}

func (s *Postgres) queryRoles(ctx context.Context, query string, args ...any) ([]models.Role, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*models.Role, error) {
	var (
		role    models.Role
		endDate sql.NullTime
		notes   sql.NullString
	)
	err := row.Scan(
		&role.ID,
		&role.MemberID,
		&role.RoleName,
		&role.StartDate,
		&endDate,
		&role.IsCurrent,
		&notes,
		&role.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan role: %w", err)
	}
	if endDate.Valid {
		end := endDate.Time
		role.EndDate = &end
	}
	role.Notes = notes.String
	return &role, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
