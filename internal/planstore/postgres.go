package planstore

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver
)

// PostgresHistory implements HistoryStore using PostgreSQL, for teams that
// centralize scan ledgers across projects.
type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(dsn string) (*PostgresHistory, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresHistory{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	return s, nil
}

func (s *PostgresHistory) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS scans (
		id SERIAL PRIMARY KEY,
		project_path TEXT NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL,
		findings INTEGER NOT NULL,
		critical INTEGER NOT NULL,
		high INTEGER NOT NULL,
		medium INTEGER NOT NULL,
		low INTEGER NOT NULL,
		effort_hours DOUBLE PRECISION NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scans_project ON scans(project_path, generated_at);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *PostgresHistory) Close() error {
	return s.db.Close()
}

func (s *PostgresHistory) SaveScan(rec ScanRecord) error {
	query := `INSERT INTO scans (project_path, generated_at, findings, critical, high, medium, low, effort_hours)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.Exec(query, rec.ProjectPath, rec.GeneratedAt, rec.Findings,
		rec.Critical, rec.High, rec.Medium, rec.Low, rec.EffortHours)
	return err
}

func (s *PostgresHistory) ListScans(projectPath string, limit int) ([]ScanRecord, error) {
	query := `SELECT id, project_path, generated_at, findings, critical, high, medium, low, effort_hours
	          FROM scans WHERE project_path = $1 ORDER BY generated_at DESC LIMIT $2`
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
