/*
Package sqlite provides a SQLite-backed implementation of leave.Store.

APPEND-ONLY ENFORCEMENT:
  The request log is append-only at two levels:
  - Go: there is no Delete method, and Decide is a conditional UPDATE
    (WHERE status = 'pending'), the only statement touching existing rows
  - SQL: triggers abort any DELETE and any status change of a row that is
    no longer pending

KEY TABLES:
  leave_requests: one row per application, seq gives insertion order

INDEXES:
  - idx_leave_requests_employee_seq: history reads (hot path)
  - idx_leave_requests_status:       admin queue

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process. The conditional
  UPDATE keeps decisions correct across processes sharing the file.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block the writer.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := leave.NewLedger(store, catalog)

SEE ALSO:
  - leave/store.go:        Interface contract
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/leave"
)

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each new connection to ":memory:" is a separate empty database.
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := NewWithDB(db)
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewWithDB wraps an open handle whose schema is already in place.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	-- Leave requests (append-only log, status is the only mutable column)
	CREATE TABLE IF NOT EXISTS leave_requests (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected')),
		applied_date TEXT NOT NULL,
		admin_remarks TEXT,
		created_at TEXT NOT NULL,
		decided_at TEXT,
		CHECK (to_date >= from_date)
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_employee_seq
		ON leave_requests(employee_id, seq DESC);
	CREATE INDEX IF NOT EXISTS idx_leave_requests_status
		ON leave_requests(status);

	CREATE TRIGGER IF NOT EXISTS trg_leave_requests_no_delete
		BEFORE DELETE ON leave_requests
	BEGIN
		SELECT RAISE(ABORT, 'leave requests are append-only');
	END;

	CREATE TRIGGER IF NOT EXISTS trg_leave_requests_monotonic_status
		BEFORE UPDATE OF status ON leave_requests
		WHEN OLD.status <> 'pending'
	BEGIN
		SELECT RAISE(ABORT, 'leave request already decided');
	END;
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// WRITES
// =============================================================================

// Append adds a request to the log.
func (s *Store) Append(ctx context.Context, r leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_requests
		(id, employee_id, from_date, to_date, leave_type, reason, status,
		 applied_date, admin_remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(r.ID),
		string(r.EmployeeID),
		r.FromDate.String(),
		r.ToDate.String(),
		r.LeaveType,
		r.Reason,
		string(r.Status),
		r.AppliedDate.String(),
		nullString(r.AdminRemarks),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return leave.ErrDuplicateRequest
		}
		return fmt.Errorf("failed to append leave request: %w", err)
	}
	return nil
}

// Decide moves a pending request to a terminal status.
func (s *Store) Decide(ctx context.Context, id leave.RequestID, status leave.Status, remarks string) (leave.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = ?, admin_remarks = ?, decided_at = ?
		WHERE id = ? AND status = 'pending'
	`, string(status), remarks, time.Now().UTC().Format(time.RFC3339), string(id))
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		var current string
		err := sqlTx.QueryRowContext(ctx,
			"SELECT status FROM leave_requests WHERE id = ?", string(id),
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrNotFound
		}
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("failed to read leave request status: %w", err)
		}
		return leave.LeaveRequest{}, leave.ErrAlreadyDecided
	}

	row := sqlTx.QueryRowContext(ctx, selectColumns+" WHERE id = ?", string(id))
	updated, err := scanRequest(row)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	if err := sqlTx.Commit(); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to commit decision: %w", err)
	}
	return updated, nil
}

// =============================================================================
// READS
// =============================================================================

const selectColumns = `
	SELECT id, employee_id, from_date, to_date, leave_type, reason, status,
	       applied_date, admin_remarks
	FROM leave_requests`

// Get returns a request by id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", string(id))
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// History returns an employee's requests, newest first.
func (s *Store) History(ctx context.Context, employeeID leave.EmployeeID) ([]leave.LeaveRequest, error) {
	return s.List(ctx, leave.ListFilter{EmployeeID: employeeID})
}

// List returns requests matching filter, newest first.
func (s *Store) List(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		conds []string
		args  []any
	)
	if filter.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, string(filter.EmployeeID))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := selectColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (leave.LeaveRequest, error) {
	var (
		r                             leave.LeaveRequest
		id, employeeID, status        string
		fromDate, toDate, appliedDate string
		remarks                       sql.NullString
	)

	err := row.Scan(&id, &employeeID, &fromDate, &toDate, &r.LeaveType, &r.Reason,
		&status, &appliedDate, &remarks)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan leave request: %w", err)
	}

	r.ID = leave.RequestID(id)
	r.EmployeeID = leave.EmployeeID(employeeID)
	r.Status = leave.Status(status)
	r.AdminRemarks = remarks.String
	if r.FromDate, err = leave.ParseDate(fromDate); err != nil {
		return r, err
	}
	if r.ToDate, err = leave.ParseDate(toDate); err != nil {
		return r, err
	}
	if r.AppliedDate, err = leave.ParseDate(appliedDate); err != nil {
		return r, err
	}
	return r, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
