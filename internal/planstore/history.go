package planstore

import (
	"fmt"
	"strings"
	"time"
)

// ScanRecord is one row of the scan history ledger.
type ScanRecord struct {
	ID          int64     `json:"id"`
	ProjectPath string    `json:"project_path"`
	GeneratedAt time.Time `json:"generated_at"`
	Findings    int       `json:"findings"`
	Critical    int       `json:"critical"`
	High        int       `json:"high"`
	Medium      int       `json:"medium"`
	Low         int       `json:"low"`
	EffortHours float64   `json:"effort_hours"`
}

// HistoryStore records scan runs so `vulnplan history` can show trends.
type HistoryStore interface {
	Close() error
	SaveScan(rec ScanRecord) error
	ListScans(projectPath string, limit int) ([]ScanRecord, error)
}

// HistoryConfig selects the storage backend, mirroring the plan snapshot's
// project keying: SQLite by default, Postgres when a DSN is configured.
type HistoryConfig struct {
	Type             string // "sqlite" or "postgres"
	ConnectionString string // file path for SQLite, DSN for Postgres
}

// NewHistoryStore creates a history store from configuration.
func NewHistoryStore(cfg HistoryConfig) (HistoryStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql":
		if cfg.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresHistory(cfg.ConnectionString)
	case "sqlite", "sqlite3", "":
		path := cfg.ConnectionString
		if path == "" {
			path = ".vulnplan/history.db"
		}
		return NewSQLiteHistory(path)
	default:
		return nil, fmt.Errorf("unsupported history store type: %s", cfg.Type)
	}
}
