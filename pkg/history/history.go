package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"shadowsafe/pkg/models"
)

// Store is a SQLite-backed journal of completed scans. It lives outside the
// scan pipeline: callers record results after a scan finishes, so the engine
// itself keeps no cross-scan mutable state.
type Store struct {
	db *sql.DB
}

// Entry is one journaled scan summary.
type Entry struct {
	ID           string
	FileName     string
	SizeBytes    int64
	DetectedType string
	RiskScore    int
	Verdict      string
	SHA256       string
	IssueCount   int
	ScannedAt    time.Time
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// Single writer; WAL keeps concurrent readers from blocking it.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id            TEXT PRIMARY KEY,
			file_name     TEXT NOT NULL,
			size_bytes    INTEGER NOT NULL,
			detected_type TEXT NOT NULL,
			risk_score    INTEGER NOT NULL,
			verdict       TEXT NOT NULL,
			sha256        TEXT NOT NULL,
			issue_count   INTEGER NOT NULL,
			scanned_at    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
	`)
	if err != nil {
		return fmt.Errorf("migrating history schema: %w", err)
	}
	return nil
}

// Record journals one completed scan.
func (s *Store) Record(ctx context.Context, result *models.ScanResult, verdict string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, file_name, size_bytes, detected_type, risk_score, verdict, sha256, issue_count, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.FileName,
		result.SizeBytes,
		result.DetectedType,
		result.RiskScore,
		verdict,
		result.Hashes["sha256"],
		len(result.Issues),
		result.ScannedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}
	return nil
}

// Recent returns the latest n journal entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, size_bytes, detected_type, risk_score, verdict, sha256, issue_count, scanned_at
		FROM scans ORDER BY scanned_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var scannedAt string
		if err := rows.Scan(&e.ID, &e.FileName, &e.SizeBytes, &e.DetectedType,
			&e.RiskScore, &e.Verdict, &e.SHA256, &e.IssueCount, &scannedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, scannedAt); err == nil {
			e.ScannedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
