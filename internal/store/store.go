// Package store persists analysis run history and file fingerprints in a
// SQLite database under the repository's .depwiki directory. Fingerprints
// record each analyzed file's content digest so a later run can tell which
// files changed since the previous pass.
package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"depwiki/internal/callgraph"
	"depwiki/internal/errors"
	"depwiki/internal/logging"
	"depwiki/internal/scanner"
)

// RunStatus tracks the lifecycle of an analysis run.
type RunStatus string

const (
	// RunRunning marks a run that is still in progress.
	RunRunning RunStatus = "running"
	// RunCompleted marks a run that finished successfully.
	RunCompleted RunStatus = "completed"
	// RunFailed marks a run that aborted with an error.
	RunFailed RunStatus = "failed"
)

// Run records one analysis pass over a repository.
type Run struct {
	ID              string     `json:"id"`
	RepoRoot        string     `json:"repo_root"`
	Status          RunStatus  `json:"status"`
	TotalFunctions  int        `json:"total_functions"`
	TotalCalls      int        `json:"total_calls"`
	FilesAnalyzed   int        `json:"files_analyzed"`
	FilesFailed     int        `json:"files_failed"`
	FilesSkipped    int        `json:"files_skipped"`
	ResolvedCalls   int        `json:"resolved_calls"`
	UnresolvedCalls int        `json:"unresolved_calls"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Store provides persistence for runs in a SQLite database.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the run database at <depwikiDir>/runs.db.
func Open(depwikiDir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(depwikiDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.StoreFailed, "failed to create state directory", err)
	}

	dbPath := filepath.Join(depwikiDir, "runs.db")
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.StoreFailed, "failed to open run database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(errors.StoreFailed, "failed to set pragma", err)
		}
	}

	store := &Store{conn: conn, logger: logger, dbPath: dbPath}

	if !dbExists {
		logger.Info("Creating run database", map[string]interface{}{
			"path": dbPath,
		})
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(errors.StoreFailed, "failed to initialize run schema", err)
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
			repo_root TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			total_functions INTEGER DEFAULT 0,
			total_calls INTEGER DEFAULT 0,
			files_analyzed INTEGER DEFAULT 0,
			files_failed INTEGER DEFAULT 0,
			files_skipped INTEGER DEFAULT 0,
			resolved_calls INTEGER DEFAULT 0,
			unresolved_calls INTEGER DEFAULT 0,
			error TEXT,
			started_at TEXT NOT NULL,
			completed_at TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

		CREATE TABLE IF NOT EXISTS file_fingerprints (
			path TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			last_analyzed TEXT NOT NULL
		);

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

// BeginRun inserts a new run in the running state and returns it.
func (s *Store) BeginRun(repoRoot string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		RepoRoot:  repoRoot,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.conn.Exec(`
		INSERT INTO runs (id, repo_root, status, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.RepoRoot, run.Status, run.StartedAt.Format(time.RFC3339))
	if err != nil {
		return nil, errors.Wrap(errors.StoreFailed, "failed to record run", err)
	}

	s.logger.Debug("Started run", map[string]interface{}{
		"runId": run.ID,
		"root":  repoRoot,
	})
	return run, nil
}

// CompleteRun marks a run completed and stores the analysis summary.
func (s *Store) CompleteRun(run *Run, summary callgraph.Summary) error {
	now := time.Now().UTC()
	run.Status = RunCompleted
	run.CompletedAt = &now
	run.TotalFunctions = summary.TotalFunctions
	run.TotalCalls = summary.TotalCalls
	run.FilesAnalyzed = summary.FilesAnalyzed
	run.FilesFailed = summary.FilesFailed
	run.FilesSkipped = summary.FilesSkipped
	run.ResolvedCalls = summary.ResolvedCalls
	run.UnresolvedCalls = summary.UnresolvedCalls
	return s.updateRun(run)
}

// FailRun marks a run failed with the given error message.
func (s *Store) FailRun(run *Run, message string) error {
	now := time.Now().UTC()
	run.Status = RunFailed
	run.CompletedAt = &now
	run.Error = message
	return s.updateRun(run)
}

func (s *Store) updateRun(run *Run) error {
	result, err := s.conn.Exec(`
		UPDATE runs SET
			status = ?,
			total_functions = ?,
			total_calls = ?,
			files_analyzed = ?,
			files_failed = ?,
			files_skipped = ?,
			resolved_calls = ?,
			unresolved_calls = ?,
			error = ?,
			completed_at = ?
		WHERE id = ?
	`,
		run.Status,
		run.TotalFunctions,
		run.TotalCalls,
		run.FilesAnalyzed,
		run.FilesFailed,
		run.FilesSkipped,
		run.ResolvedCalls,
		run.UnresolvedCalls,
		nullString(run.Error),
		nullTime(run.CompletedAt),
		run.ID,
	)
	if err != nil {
		return errors.Wrap(errors.StoreFailed, "failed to update run", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New(errors.StoreFailed, fmt.Sprintf("run not found: %s", run.ID))
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when no run matches.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.conn.QueryRow(`
		SELECT id, repo_root, status, total_functions, total_calls,
			files_analyzed, files_failed, files_skipped, resolved_calls, unresolved_calls,
			error, started_at, completed_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row.Scan)
}

// ListRuns retrieves the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.Query(`
		SELECT id, repo_root, status, total_functions, total_calls,
			files_analyzed, files_failed, files_skipped, resolved_calls, unresolved_calls,
			error, started_at, completed_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.StoreFailed, "failed to list runs", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CleanupOldRuns removes finished runs older than the retention window.
func (s *Store) CleanupOldRuns(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)
	result, err := s.conn.Exec(`
		DELETE FROM runs
		WHERE status IN ('completed', 'failed')
		AND completed_at < ?
	`, cutoff)
	if err != nil {
		return 0, errors.Wrap(errors.StoreFailed, "failed to cleanup old runs", err)
	}
	return result.RowsAffected()
}

func scanRun(scan func(dest ...interface{}) error) (*Run, error) {
	var run Run
	var errMsg, completedAt sql.NullString
	var startedAt string

	err := scan(
		&run.ID,
		&run.RepoRoot,
		&run.Status,
		&run.TotalFunctions,
		&run.TotalCalls,
		&run.FilesAnalyzed,
		&run.FilesFailed,
		&run.FilesSkipped,
		&run.ResolvedCalls,
		&run.UnresolvedCalls,
		&errMsg,
		&startedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.StoreFailed, "failed to scan run", err)
	}

	run.Error = errMsg.String
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			run.CompletedAt = &t
		}
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// File fingerprint operations for change detection.

// Fingerprint computes a short content digest for change detection.
func Fingerprint(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// RecordFingerprints stores a content digest for every analyzed file and
// reports how many of them are new or changed since the previous run. A
// file that vanished between scan and record is skipped.
func (s *Store) RecordFingerprints(files []scanner.CodeFile) (int, error) {
	previous, err := s.AllFingerprints()
	if err != nil {
		return 0, errors.Wrap(errors.StoreFailed, "reading stored fingerprints", err)
	}

	changed := 0
	for _, file := range files {
		content, err := os.ReadFile(file.Path)
		if err != nil {
			continue
		}
		fingerprint := Fingerprint(content)
		if previous[file.RelativePath] == fingerprint {
			continue
		}
		changed++
		if err := s.SaveFingerprint(file.RelativePath, fingerprint); err != nil {
			return changed, errors.Wrap(errors.StoreFailed, "saving fingerprint for "+file.RelativePath, err)
		}
	}
	s.logger.Debug("Fingerprints recorded", map[string]interface{}{
		"files":   len(files),
		"changed": changed,
	})
	return changed, nil
}

// GetFingerprint retrieves a file's stored fingerprint, or "" when absent.
func (s *Store) GetFingerprint(path string) (string, error) {
	var fingerprint string
	err := s.conn.QueryRow(`
		SELECT fingerprint FROM file_fingerprints WHERE path = ?
	`, path).Scan(&fingerprint)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return fingerprint, nil
}

// SaveFingerprint saves or updates a file's fingerprint.
func (s *Store) SaveFingerprint(path, fingerprint string) error {
	_, err := s.conn.Exec(`
		INSERT OR REPLACE INTO file_fingerprints (path, fingerprint, last_analyzed)
		VALUES (?, ?, ?)
	`, path, fingerprint, time.Now().UTC().Format(time.RFC3339))
	return err
}

// AllFingerprints retrieves every stored fingerprint keyed by path.
func (s *Store) AllFingerprints() (map[string]string, error) {
	rows, err := s.conn.Query("SELECT path, fingerprint FROM file_fingerprints")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	fingerprints := make(map[string]string)
	for rows.Next() {
		var path, fingerprint string
		if err := rows.Scan(&path, &fingerprint); err != nil {
			return nil, err
		}
		fingerprints[path] = fingerprint
	}
	return fingerprints, rows.Err()
}

// ClearFingerprints removes all stored fingerprints.
func (s *Store) ClearFingerprints() error {
	_, err := s.conn.Exec("DELETE FROM file_fingerprints")
	return err
}
