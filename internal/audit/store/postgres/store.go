package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"clubroster/internal/audit"
	txcontext "clubroster/pkg/platform/tx"
)

// Store persists admin-log entries in PostgreSQL. Append joins a transaction
// carried in ctx so the entry commits atomically with the mutation it
// describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO admin_log (id, admin_call_sign, action, target_call_sign, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.AdminCallSign,
		entry.Action,
		nullString(entry.TargetCallSign),
		nullString(entry.Details),
		nullString(entry.IPAddress),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert admin log entry: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := `
		SELECT id, admin_call_sign, action, target_call_sign, details, ip_address, created_at
		FROM admin_log
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query admin log: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) ListByTarget(ctx context.Context, targetCallSign string) ([]audit.Entry, error) {
	query := `
		SELECT id, admin_call_sign, action, target_call_sign, details, ip_address, created_at
		FROM admin_log
		WHERE target_call_sign = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, targetCallSign)
	if err != nil {
		return nil, fmt.Errorf("query admin log by target: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry   audit.Entry
			target  sql.NullString
			details sql.NullString
			ip      sql.NullString
		)
		err := rows.Scan(
			&entry.ID,
			&entry.AdminCallSign,
			&entry.Action,
			&target,
			&details,
			&ip,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan admin log entry: %w", err)
		}
		entry.TargetCallSign = target.String
		entry.Details = details.String
		entry.IPAddress = ip.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin log: %w", err)
	}
	return entries, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
