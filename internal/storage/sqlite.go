package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Ag1104/attendance-system/internal/models"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteLedger stores entries in a local SQLite database. The connection pool
// is limited to one connection, so SQLite sees a single writer.
type SQLiteLedger struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteLedger, error) {
	if path != "" && !strings.HasPrefix(path, ":memory:") && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &SQLiteLedger{db: db}, nil
}

func (s *SQLiteLedger) EnsureInitialized(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLiteLedger) ListForDate(ctx context.Context, date string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT staff_id FROM attendance_entries WHERE date = ? ORDER BY seq`, date)
	if err != nil {
		return nil, fmt.Errorf("list signed in: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan staff id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteLedger) Entries(ctx context.Context, date string) ([]models.AttendanceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_id, date, time, status, ip, distance_meters, created_at
		FROM attendance_entries WHERE date = ? ORDER BY seq
	`, date)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	out := []models.AttendanceEntry{}
	for rows.Next() {
		var (
			e       models.AttendanceEntry
			created string
		)
		if err := rows.Scan(&e.ID, &e.StaffID, &e.Date, &e.Time, &e.Status, &e.IP, &e.DistanceMeters, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("entry %s created_at: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteLedger) FindConflicts(ctx context.Context, staffID, ip, date string) (Conflict, error) {
	return sqliteConflict(ctx, s.db, staffID, ip, date)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqliteConflict(ctx context.Context, q queryRower, staffID, ip, date string) (Conflict, error) {
	var staff, device int
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(staff_id = ?), 0),
			COALESCE(SUM(ip = ?), 0)
		FROM attendance_entries WHERE date = ?
	`, staffID, ip, date).Scan(&staff, &device)
	if err != nil {
		return NoConflict, fmt.Errorf("check conflicts: %w", err)
	}
	switch {
	case staff > 0:
		return StaffConflict, nil
	case device > 0:
		return DeviceConflict, nil
	}
	return NoConflict, nil
}

func (s *SQLiteLedger) Append(ctx context.Context, entry models.AttendanceEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	c, err := sqliteConflict(ctx, tx, entry.StaffID, entry.IP, entry.Date)
	if err != nil {
		return err
	}
	if c != NoConflict {
		return c.Err()
	}

	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO attendance_entries
		(id, staff_id, date, time, status, ip, distance_meters, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.StaffID,
		entry.Date,
		entry.Time,
		string(entry.Status),
		entry.IP,
		RoundDistance(entry.DistanceMeters),
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return sqliteUnique(err)
	}
	return tx.Commit()
}

func (s *SQLiteLedger) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sqliteUnique(err error) error {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) || sqlErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return fmt.Errorf("append entry: %w", err)
	}
	if strings.Contains(err.Error(), "attendance_entries.ip") {
		return ErrDuplicateDevice
	}
	return ErrDuplicateStaff
}
