package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clubroster/internal/attendance/models"
	"clubroster/pkg/platform/sentinel"
	txcontext "clubroster/pkg/platform/tx"
)

// Postgres persists attendance records in PostgreSQL. ReplaceForDate expects
// to run inside a transaction carried in ctx so the delete and the inserts
// commit together.
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

const recordColumns = `id, member_id, meeting_date, attended, event_type, event_name, notes, created_at, recorded_by`

func (s *Postgres) ReplaceForDate(ctx context.Context, meetingDate time.Time, records []*models.Record) error {
	ex := s.execer(ctx)
	_, err := ex.ExecContext(ctx, `DELETE FROM meeting_attendance WHERE meeting_date = $1`, meetingDate)
	if err != nil {
		return fmt.Errorf("clear attendance for date: %w", err)
	}
	query := `
		INSERT INTO meeting_attendance (member_id, meeting_date, attended, event_type, event_name, notes, created_at, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	for _, record := range records {
		err := ex.QueryRowContext(ctx, query,
			record.MemberID,
			record.MeetingDate,
			record.Attended,
			record.EventType,
			nullString(record.EventName),
			nullString(record.Notes),
			record.CreatedAt,
			record.RecordedBy,
		).Scan(&record.ID)
		if err != nil {
			return fmt.Errorf("insert attendance record: %w", err)
		}
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id int64) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM meeting_attendance WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attendance record: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteForDate(ctx context.Context, meetingDate time.Time) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM meeting_attendance WHERE meeting_date = $1`, meetingDate)
	if err != nil {
		return fmt.Errorf("delete attendance for date: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM meeting_attendance WHERE id = $1`
	return scanRecord(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *Postgres) ListByMember(ctx context.Context, memberID int64) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM meeting_attendance WHERE member_id = $1 ORDER BY meeting_date DESC`
	return s.queryRecords(ctx, query, memberID)
}

func (s *Postgres) ListByDate(ctx context.Context, meetingDate time.Time) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM meeting_attendance WHERE meeting_date = $1 ORDER BY member_id`
	return s.queryRecords(ctx, query, meetingDate)
}

func (s *Postgres) ListRecentDates(ctx context.Context, limit int) ([]models.DateSummary, error) {
	query := `
		SELECT meeting_date, MIN(event_type), MIN(COALESCE(event_name, '')), COUNT(*)
		FROM meeting_attendance
		GROUP BY meeting_date
		ORDER BY meeting_date DESC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query attendance dates: %w", err)
	}
	defer rows.Close()

	var summaries []models.DateSummary
	for rows.Next() {
		var summary models.DateSummary
		if err := rows.Scan(&summary.MeetingDate, &summary.EventType, &summary.EventName, &summary.Attendees); err != nil {
			return nil, fmt.Errorf("scan attendance date: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance dates: %w", err)
	}
	return summaries, nil
}

func (s *Postgres) DeleteByMember(ctx context.Context, memberID int64) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM meeting_attendance WHERE member_id = $1`, memberID)
	if err != nil {
		return fmt.Errorf("delete attendance for member: %w", err)
	}
	return nil
}

func (s *Postgres) queryRecords(ctx context.Context, query string, args ...any) ([]models.Record, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record    models.Record
		eventName sql.NullString
		notes     sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.MemberID,
		&record.MeetingDate,
		&record.Attended,
		&record.EventType,
		&eventName,
		&notes,
		&record.CreatedAt,
		&record.RecordedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan attendance record: %w", err)
	}
	record.EventName = eventName.String
	record.Notes = notes.String
	return &record, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
