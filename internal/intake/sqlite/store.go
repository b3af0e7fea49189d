// Package sqlite provides the SQLite-backed intake store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/kingrea/techfest/internal/intake"
	"github.com/kingrea/techfest/internal/intake/sqlite/migrations"
	"github.com/kingrea/techfest/internal/submission"
)

// Store persists registrations in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save implements intake.Store.
func (s *Store) Save(ctx context.Context, record intake.Record) error {
	p := record.Payload
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("sqlite: record id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registrations (
		   id, version, full_name, email, phone, college, branch,
		   year, experience, team_name, member_count, submitted_at, received_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Version, p.FullName, p.Email, p.Phone, p.College, p.Branch,
		p.Year, p.Experience, p.TeamName, p.MemberCount,
		toMillis(p.SubmittedAt), toMillis(record.ReceivedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return intake.ErrDuplicate
		}
		return fmt.Errorf("sqlite: insert registration: %w", err)
	}
	for i, eventID := range p.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO registration_events (registration_id, position, event_id) VALUES (?, ?, ?)`,
			p.ID, i, eventID,
		); err != nil {
			return fmt.Errorf("sqlite: insert event %s: %w", eventID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

const selectRegistration = `SELECT id, version, full_name, email, phone, college, branch,
	year, experience, team_name, member_count, submitted_at, received_at
	FROM registrations`

// Get implements intake.Store.
func (s *Store) Get(ctx context.Context, id string) (intake.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRegistration+` WHERE id = ?`, strings.TrimSpace(id))
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return intake.Record{}, intake.ErrNotFound
	}
	if err != nil {
		return intake.Record{}, fmt.Errorf("sqlite: get registration: %w", err)
	}
	if err := s.loadEvents(ctx, &record); err != nil {
		return intake.Record{}, err
	}
	return record, nil
}

// List implements intake.Store.
func (s *Store) List(ctx context.Context, limit int) ([]intake.Record, error) {
	if limit <= 0 {
		limit = intake.DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRegistration+` ORDER BY received_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list registrations: %w", err)
	}
	var records []intake.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scan registration: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: list registrations: %w", err)
	}
	rows.Close()
	for i := range records {
		if err := s.loadEvents(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Count implements intake.Store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count registrations: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (intake.Record, error) {
	var (
		p                     submission.Payload
		submitted, receivedAt int64
	)
	if err := row.Scan(
		&p.ID, &p.Version, &p.FullName, &p.Email, &p.Phone, &p.College, &p.Branch,
		&p.Year, &p.Experience, &p.TeamName, &p.MemberCount, &submitted, &receivedAt,
	); err != nil {
		return intake.Record{}, err
	}
	p.SubmittedAt = fromMillis(submitted)
	return intake.Record{Payload: p, ReceivedAt: fromMillis(receivedAt)}, nil
}

func (s *Store) loadEvents(ctx context.Context, record *intake.Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id FROM registration_events WHERE registration_id = ? ORDER BY position`,
		record.Payload.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: load events: %w", err)
	}
	defer rows.Close()
	events := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("sqlite: scan event: %w", err)
		}
		events = append(events, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: load events: %w", err)
	}
	record.Payload.Events = events
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ intake.Store = (*Store)(nil)
