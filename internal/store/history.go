// Package store persists verification history in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"n3proof/internal/logging"
	"n3proof/internal/proof"
)

// Run is one recorded verification.
type Run struct {
	ID          string        `json:"id"`
	Document    string        `json:"document"`
	Source      string        `json:"source"`
	GraphDigest string        `json:"graph_digest"`
	Verdict     string        `json:"verdict"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	Message     string        `json:"message,omitempty"`
	Derived     []string      `json:"derived,omitempty"`
	KBBefore    int           `json:"kb_before"`
	KBAfter     int           `json:"kb_after"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RunFromReport captures a verification report for recording. source names
// the input files and digest identifies the graph that was checked.
func RunFromReport(report *proof.Report, source, digest string) Run {
	run := Run{
		Document:    report.Document,
		Source:      source,
		GraphDigest: digest,
		Verdict:     report.Verdict(),
		ErrorKind:   report.ErrorKind(),
		KBBefore:    report.KBBefore,
		KBAfter:     report.KBAfter,
		Duration:    report.Duration,
		CreatedAt:   report.Started,
	}
	if report.Err != nil {
		run.Message = report.Err.Error()
	}
	for _, t := range report.Derived() {
		run.Derived = append(run.Derived, t.String())
	}
	return run
}

// VerdictCount summarizes history per verdict and error kind.
type VerdictCount struct {
	Verdict   string
	ErrorKind string
	Count     int
}

// History is the SQLite-backed verification log.
type History struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*History, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open history")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreWarn("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreWarn("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	h := &History{db: db, dbPath: path}
	if err := h.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}
	logging.Store("Verification history opened at %s", path)
	return h, nil
}

func (h *History) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS verifications (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		source TEXT,
		graph_digest TEXT,
		verdict TEXT NOT NULL,
		error_kind TEXT,
		message TEXT,
		derived TEXT,
		kb_before INTEGER,
		kb_after INTEGER,
		duration_ms INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verifications_document ON verifications(document);
	CREATE INDEX IF NOT EXISTS idx_verifications_created ON verifications(created_at);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Record stores run, assigning an ID and timestamp when they are unset, and
// returns the stored run.
func (h *History) Record(ctx context.Context, run Run) (Run, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Record verification")
	defer timer.Stop()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	derivedJSON, err := json.Marshal(run.Derived)
	if err != nil {
		return run, fmt.Errorf("failed to encode derived triples: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO verifications
		(id, document, source, graph_digest, verdict, error_kind, message,
		 derived, kb_before, kb_after, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Document, run.Source, run.GraphDigest, run.Verdict,
		run.ErrorKind, run.Message, string(derivedJSON), run.KBBefore,
		run.KBAfter, run.Duration.Milliseconds(), run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to record verification of %s: %v", run.Document, err)
		return run, fmt.Errorf("failed to record verification: %w", err)
	}
	logging.Get(logging.CategoryStore).Debug("Recorded verification %s: %s %s", run.ID, run.Document, run.Verdict)
	return run, nil
}

// Recent returns up to limit runs, newest first. An empty document returns
// runs for every document.
func (h *History) Recent(ctx context.Context, document string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	query := `SELECT ` + runColumns + ` FROM verifications`
	args := []interface{}{}
	if document != "" {
		query += ` WHERE document = ?`
		args = append(args, document)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with id.
func (h *History) Get(ctx context.Context, id string) (Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	row := h.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM verifications WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("verification %s: %w", id, ErrNotFound)
	}
	return run, err
}

const runColumns = `id, document, source, graph_digest, verdict, error_kind, message,
		       derived, kb_before, kb_after, duration_ms, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run                                    Run
		source, digest, kind, message, derived sql.NullString
		durationMs                             int64
		created                                string
	)
	if err := s.Scan(&run.ID, &run.Document, &source, &digest, &run.Verdict,
		&kind, &message, &derived, &run.KBBefore, &run.KBAfter, &durationMs, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan history row: %w", err)
	}
	run.Source = source.String
	run.GraphDigest = digest.String
	run.ErrorKind = kind.String
	run.Message = message.String
	run.Duration = time.Duration(durationMs) * time.Millisecond
	if derived.Valid && derived.String != "" && derived.String != "null" {
		if err := json.Unmarshal([]byte(derived.String), &run.Derived); err != nil {
			return run, fmt.Errorf("failed to decode derived triples of %s: %w", run.ID, err)
		}
	}
	var err error
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return run, fmt.Errorf("failed to parse timestamp of %s: %w", run.ID, err)
	}
	return run, nil
}

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("not found")

// Stats counts runs per verdict and error kind.
func (h *History) Stats(ctx context.Context) ([]VerdictCount, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.QueryContext(ctx, `
		SELECT verdict, COALESCE(error_kind, ''), COUNT(*)
		FROM verifications
		GROUP BY verdict, COALESCE(error_kind, '')
		ORDER BY verdict, COALESCE(error_kind, '')`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history stats: %w", err)
	}
	defer rows.Close()

	var out []VerdictCount
	for rows.Next() {
		var c VerdictCount
		if err := rows.Scan(&c.Verdict, &c.ErrorKind, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan history stats: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Path returns the database location.
func (h *History) Path() string { return h.dbPath }
