package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"clubroster/internal/dues/models"
	"clubroster/pkg/platform/sentinel"
	txcontext "clubroster/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists dues payments in PostgreSQL. A unique index on
// (member_id, year) backstops the service-level duplicate check.
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

const paymentColumns = `id, member_id, year, amount, payment_date, payment_method, notes, created_at, created_by`

func (s *Postgres) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO dues_payments (member_id, year, amount, payment_date, payment_method, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		payment.MemberID,
		payment.Year,
		payment.Amount,
		payment.PaymentDate,
		payment.PaymentMethod,
		nullString(payment.Notes),
		payment.CreatedAt,
		payment.CreatedBy,
	).Scan(&payment.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert dues payment: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, payment *models.Payment) error {
	query := `
		UPDATE dues_payments
		SET year = $1, amount = $2, payment_date = $3, payment_method = $4, notes = $5
		WHERE id = $6
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		payment.Year,
		payment.Amount,
		payment.PaymentDate,
		payment.PaymentMethod,
		nullString(payment.Notes),
		payment.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update dues payment: %w", err)
	}
	return requireRow(result, "update dues payment")
}

func (s *Postgres) Delete(ctx context.Context, id int64) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM dues_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dues payment: %w", err)
	}
	return requireRow(result, "delete dues payment")
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM dues_payments WHERE id = $1`
	return scanPayment(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *Postgres) FindByMemberAndYear(ctx context.Context, memberID int64, year int) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM dues_payments WHERE member_id = $1 AND year = $2`
	return scanPayment(s.execer(ctx).QueryRowContext(ctx, query, memberID, year))
}

func (s *Postgres) ListByMember(ctx context.Context, memberID int64) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM dues_payments WHERE member_id = $1 ORDER BY year DESC`
	return s.queryPayments(ctx, query, memberID)
}

func (s *Postgres) ListByYear(ctx context.Context, year int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM dues_payments WHERE year = $1 ORDER BY member_id`
	return s.queryPayments(ctx, query, year)
}

func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM dues_payments ORDER BY payment_date DESC LIMIT $1`
	return s.queryPayments(ctx, query, limit)
}

func (s *Postgres) DeleteByMember(ctx context.Context, memberID int64) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM dues_payments WHERE member_id = $1`, memberID)
	if err != nil {
		return fmt.Errorf("delete dues payments for member: %w", err)
	}
	return nil
}

func (s *Postgres) queryPayments(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dues payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dues payments: %w", err)
	}
	return payments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		payment models.Payment
		notes   sql.NullString
	)
	err := row.Scan(
		&payment.ID,
		&payment.MemberID,
		&payment.Year,
		&payment.Amount,
		&payment.PaymentDate,
		&payment.PaymentMethod,
		&notes,
		&payment.CreatedAt,
		&payment.CreatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dues payment: %w", err)
	}
	payment.Notes = notes.String
	return &payment, nil
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
