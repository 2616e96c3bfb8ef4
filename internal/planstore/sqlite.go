package planstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteHistory implements HistoryStore using SQLite.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory opens (creating if needed) the history database and
// applies migrations.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteHistory{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteHistory) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_path TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		findings INTEGER NOT NULL,
		critical INTEGER NOT NULL,
		high INTEGER NOT NULL,
		medium INTEGER NOT NULL,
		low INTEGER NOT NULL,
		effort_hours REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scans_project ON scans(project_path, generated_at);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}

// SaveScan appends one scan run to the ledger.
func (s *SQLiteHistory) SaveScan(rec ScanRecord) error {
	query := `INSERT INTO scans (project_path, generated_at, findings, critical, high, medium, low, effort_hours)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, rec.ProjectPath, rec.GeneratedAt, rec.Findings,
		rec.Critical, rec.High, rec.Medium, rec.Low, rec.EffortHours)
	return err
}

// ListScans returns the most recent scans for a project, newest first.
func (s *SQLiteHistory) ListScans(projectPath string, limit int) ([]ScanRecord, error) {
	query := `SELECT id, project_path, generated_at, findings, critical, high, medium, low, effort_hours
	          FROM scans WHERE project_path = ? ORDER BY generated_at DESC LIMIT ?`
	rows, err := s.db.Query(query, projectPath, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		if err := rows.Scan(&rec.ID, &rec.ProjectPath, &rec.GeneratedAt, &rec.Findings,
			&rec.Critical, &rec.High, &rec.Medium, &rec.Low, &rec.EffortHours); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
