package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agenthands/meddesert/internal/core/model"
)

const auditSchema = `CREATE TABLE IF NOT EXISTS audit_log(
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	ts TEXT NOT NULL,
	event TEXT NOT NULL,
	actor TEXT NOT NULL,
	status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_status ON audit_log(status);`

type SQLiteAuditStore struct {
	db *sql.DB
}

// OpenSQLiteAudit opens (creating if needed) the audit database at path and seeds it
// with seed when the table is empty.
func OpenSQLiteAudit(ctx context.Context, path string, seed []model.AuditLog) (*SQLiteAuditStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}
	if _, err := db.ExecContext(ctx, auditSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init audit schema: %w", err)
	}

	s := &SQLiteAuditStore{db: db}
	if err := s.seed(ctx, seed); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteAuditStore) seed(ctx context.Context, entries []model.AuditLog) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count audit entries: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, e := range entries {
		if err := s.Append(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteAuditStore) Append(ctx context.Context, e model.AuditLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log(id, ts, event, actor, status) VALUES(?,?,?,?,?)`,
		e.ID, e.Timestamp, e.Event, e.User, string(e.Status))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *SQLiteAuditStore) List(ctx context.Context, status string) ([]model.AuditLog, error) {
	query := `SELECT id, ts, event, actor, status FROM audit_log`
	var args []interface{}
	if status != "" && status != "all" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	out := []model.AuditLog{}
	for rows.Next() {
		var e model.AuditLog
		var st string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Event, &e.User, &st); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Status = model.AuditStatus(st)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteAuditStore) Close() error {
	return s.db.Close()
}
