package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/stairwalk/internal/summary"
	_ "modernc.org/sqlite" // SQLite driver
)

// DBFile is the database file name inside the state directory.
const DBFile = "stairwalk.db"

// timeLayout is fixed-width so that created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore creates a SQLiteRunStore with its database in dir,
// creating the directory if needed.
func NewSQLiteRunStore(dir string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string {
	return s.dbPath
}

// SaveRun inserts or replaces a run and its endpoint sample.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	hist, err := json.Marshal(run.Summary.Histogram)
	if err != nil {
		return fmt.Errorf("failed to marshal histogram: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, sm := run.Params, run.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			id, seed, trials, steps, faces, down_max, up_max, reset_probability, bins, threshold,
			exceedance, mean, std_dev, median, min_end, max_end, reset_walks, histogram, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, strconv.FormatUint(p.Seed, 10), p.Trials, p.Rules.Steps, p.Rules.Faces,
		p.Rules.DownMax, p.Rules.UpMax, p.Rules.ResetProbability, p.Bins, p.Threshold,
		sm.Exceedance, sm.Mean, sm.StdDev, sm.Median, sm.Min, sm.Max, sm.ResetWalks, string(hist),
		run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_ends WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear endpoints: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_ends (run_id, trial, end_value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare endpoint insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range run.Ends {
		if _, err := stmt.ExecContext(ctx, run.ID, i, v); err != nil {
			return fmt.Errorf("failed to insert endpoint %d: %w", i, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, seed, trials, steps, faces, down_max, up_max, reset_probability, bins, threshold,
	exceedance, mean, std_dev, median, min_end, max_end, reset_walks, histogram, created_at`

// GetRun retrieves a run and its endpoint sample by ID.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT end_value FROM run_ends WHERE run_id = ? ORDER BY trial`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoints: %w", err)
	}
	defer rows.Close()

	run.Ends = make([]float64, 0, run.Params.Trials)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		run.Ends = append(run.Ends, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read endpoints: %w", err)
	}

	run.Summary.Samples = len(run.Ends)
	return run, nil
}

// ListRuns returns runs newest first, without endpoint samples.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		run.Summary.Samples = run.Params.Trials
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run; its endpoints cascade.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		seed      string
		hist      string
		createdAt string
	)
	p, sm := &run.Params, &run.Summary
	err := row.Scan(
		&run.ID, &seed, &p.Trials, &p.Rules.Steps, &p.Rules.Faces, &p.Rules.DownMax, &p.Rules.UpMax,
		&p.Rules.ResetProbability, &p.Bins, &p.Threshold,
		&sm.Exceedance, &sm.Mean, &sm.StdDev, &sm.Median, &sm.Min, &sm.Max, &sm.ResetWalks, &hist,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if p.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("run %s: invalid seed %q: %w", run.ID, seed, err)
	}
	var h summary.Histogram
	if err := json.Unmarshal([]byte(hist), &h); err != nil {
		return nil, fmt.Errorf("run %s: invalid histogram: %w", run.ID, err)
	}
	sm.Histogram = h
	sm.Threshold = p.Threshold
	if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("run %s: invalid created_at %q: %w", run.ID, createdAt, err)
	}

	return &run, nil
}
