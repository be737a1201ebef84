// Package history persists backup run records to a SQLite database so past
// runs against an archive can be listed and compared.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/archtree/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Run represents a single backup or verification run record
type Run struct {
	ID            string
	ArchivePath   string
	PlanFile      string
	StartedAt     time.Time
	Duration      time.Duration
	TotalExpected int
	TotalArchived int
	Matched       int
	Missing       int
	SuccessRate   float64
	Complete      bool
	MissingFiles  []string
	CreatedAt     time.Time
}

// NewRun builds a Run record from a verification result, assigning a fresh
// run ID.
func NewRun(archivePath, planFile string, startedAt time.Time, duration time.Duration, result *models.VerificationResult) *Run {
	run := &Run{
		ID:          uuid.NewString(),
		ArchivePath: archivePath,
		PlanFile:    planFile,
		StartedAt:   startedAt,
		Duration:    duration,
	}
	if result != nil {
		run.TotalExpected = result.TotalExpected
		run.TotalArchived = result.TotalArchived
		run.Matched = len(result.ArchivedFiles)
		run.Missing = len(result.MissingFiles)
		run.SuccessRate = result.SuccessRate()
		run.Complete = result.IsComplete()
		run.MissingFiles = result.MissingFiles
	}
	return run
}

// Store manages the SQLite database of backup runs
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access. busy_timeout goes first so
	// subsequent statements wait on locks instead of failing immediately.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on
// lock errors that can occur during concurrent initialization of the same
// database file.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts a run record. A missing ID is assigned automatically.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	missingJSON := "[]"
	if len(run.MissingFiles) > 0 {
		data, err := json.Marshal(run.MissingFiles)
		if err != nil {
			return fmt.Errorf("marshal missing files: %w", err)
		}
		missingJSON = string(data)
	}

	query := `INSERT INTO backup_runs
		(id, archive_path, plan_file, started_at, duration_seconds, total_expected, total_archived, matched, missing, success_rate, complete, missing_files)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.ArchivePath,
		run.PlanFile,
		run.StartedAt.UTC(),
		int64(run.Duration.Seconds()),
		run.TotalExpected,
		run.TotalArchived,
		run.Matched,
		run.Missing,
		run.SuccessRate,
		run.Complete,
		missingJSON,
	)
	if err != nil {
		return fmt.Errorf("insert backup run: %w", err)
	}

	return nil
}

// GetRuns retrieves all runs for an archive, most recent first.
func (s *Store) GetRuns(ctx context.Context, archivePath string) ([]*Run, error) {
	query := selectColumns + ` WHERE archive_path = ? ORDER BY started_at DESC, created_at DESC`
	return s.queryRuns(ctx, query, archivePath)
}

// LatestRun returns the most recent run for an archive, or nil when the
// archive has no recorded runs.
func (s *Store) LatestRun(ctx context.Context, archivePath string) (*Run, error) {
	runs, err := s.queryRuns(ctx, selectColumns+` WHERE archive_path = ? ORDER BY started_at DESC, created_at DESC LIMIT 1`, archivePath)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// ListRecent returns the most recent runs across all archives, capped at limit.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(ctx, selectColumns+` ORDER BY started_at DESC, created_at DESC LIMIT ?`, limit)
}

// Prune deletes runs older than keepDays. keepDays <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)
	result, err := s.db.ExecContext(ctx, `DELETE FROM backup_runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune backup runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned runs: %w", err)
	}
	return deleted, nil
}

const selectColumns = `SELECT id, archive_path, plan_file, started_at, duration_seconds, total_expected, total_archived, matched, missing, success_rate, complete, missing_files, created_at
	FROM backup_runs`

func (s *Store) queryRuns(ctx context.Context, query string, args ...interface{}) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query backup runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var planFile, missingJSON sql.NullString
		var durationSecs int64
		err := rows.Scan(
			&run.ID,
			&run.ArchivePath,
			&planFile,
			&run.StartedAt,
			&durationSecs,
			&run.TotalExpected,
			&run.TotalArchived,
			&run.Matched,
			&run.Missing,
			&run.SuccessRate,
			&run.Complete,
			&missingJSON,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan backup run: %w", err)
		}

		run.PlanFile = planFile.String
		run.Duration = time.Duration(durationSecs) * time.Second
		if missingJSON.Valid && missingJSON.String != "" && missingJSON.String != "[]" {
			if err := json.Unmarshal([]byte(missingJSON.String), &run.MissingFiles); err != nil {
				return nil, fmt.Errorf("unmarshal missing files: %w", err)
			}
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backup runs: %w", err)
	}

	return runs, nil
}
