// Package history persists review run records in a local SQLite database
// so past runs can be listed and pruned from the CLI.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DBFileName is the history database file inside the .preflight directory.
const DBFileName = "history.db"

// Run is one recorded review invocation.
type Run struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"startedAt"`
	Mode          string    `json:"mode"`
	Analyzer      string    `json:"analyzer,omitempty"`
	FilesChanged  int       `json:"filesChanged"`
	ContextFiles  int       `json:"contextFiles"`
	IssueCount    int       `json:"issueCount"`
	CriticalCount int       `json:"criticalCount"`
	WarningCount  int       `json:"warningCount"`
	InfoCount     int       `json:"infoCount"`
	DurationMS    int64     `json:"durationMs"`
	GateFailed    bool      `json:"gateFailed"`
}

// Store provides persistence for review runs.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// OpenStore opens or creates the history database under dir.
func OpenStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFileName)
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	store := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Debug("creating history database", "path", dbPath)
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return store, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			analyzer TEXT,
			files_changed INTEGER NOT NULL DEFAULT 0,
			context_files INTEGER NOT NULL DEFAULT 0,
			issue_count INTEGER NOT NULL DEFAULT 0,
			critical_count INTEGER NOT NULL DEFAULT 0,
			warning_count INTEGER NOT NULL DEFAULT 0,
			info_count INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			gate_failed INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// RecordRun inserts a run. A missing ID or start time is filled in.
func (s *Store) RecordRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO runs (id, started_at, mode, analyzer, files_changed, context_files,
			issue_count, critical_count, warning_count, info_count, duration_ms, gate_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.Exec(query,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Mode,
		nullString(run.Analyzer),
		run.FilesChanged,
		run.ContextFiles,
		run.IssueCount,
		run.CriticalCount,
		run.WarningCount,
		run.InfoCount,
		run.DurationMS,
		run.GateFailed,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	s.logger.Debug("recorded run", "runId", run.ID, "issues", run.IssueCount)
	return nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.conn.Query(`
		SELECT id, started_at, mode, analyzer, files_changed, context_files,
			issue_count, critical_count, warning_count, info_count, duration_ms, gate_failed
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Prune removes runs older than the given retention period and reports
// how many rows were deleted.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)

	result, err := s.conn.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}

	return result.RowsAffected()
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var analyzer sql.NullString
	var startedAt string

	err := rows.Scan(
		&run.ID,
		&startedAt,
		&run.Mode,
		&analyzer,
		&run.FilesChanged,
		&run.ContextFiles,
		&run.IssueCount,
		&run.CriticalCount,
		&run.WarningCount,
		&run.InfoCount,
		&run.DurationMS,
		&run.GateFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Analyzer = analyzer.String
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}

	return &run, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
