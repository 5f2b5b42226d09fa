package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ca-srg/kwsearch/internal/types"
)

const timeLayout = "2006-01-02 15:04:05"

// Store manages SQLite persistence for search comparison runs
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.kwsearch/history.db
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".kwsearch", "history.db"), nil
}

// NewStore opens the database at dbPath, or DefaultPath when empty.
// The parent directory and database file are created if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		var err error
		if dbPath, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS search_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_at DATETIME NOT NULL,
			directory TEXT NOT NULL,
			strategy TEXT NOT NULL,
			workers INTEGER NOT NULL,
			files INTEGER NOT NULL,
			keywords_hit INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			report_path TEXT NOT NULL DEFAULT ''
		);
	`
	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create search_runs table: %w", err)
	}

	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_search_runs_run_at
		ON search_runs(run_at);
	`
	if _, err := s.db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Record stores one strategy's run and returns its row id.
// A zero RunAt is replaced with the current time.
func (s *Store) Record(ctx context.Context, record *types.RunRecord) (int64, error) {
	if record.RunAt.IsZero() {
		record.RunAt = time.Now()
	}

	insertSQL := `
		INSERT INTO search_runs
			(run_at, directory, strategy, workers, files, keywords_hit, duration_ns, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, insertSQL,
		record.RunAt.UTC().Format(timeLayout),
		record.Directory,
		string(record.Strategy),
		record.Workers,
		record.Files,
		record.KeywordsHit,
		int64(record.Duration),
		record.ReportPath,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record search run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	record.ID = id
	return id, nil
}

// Recent returns up to limit runs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		return []types.RunRecord{}, nil
	}

	query := `
		SELECT id, run_at, directory, strategy, workers, files, keywords_hit, duration_ns, report_path
		FROM search_runs
		ORDER BY run_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []types.RunRecord{}
	for rows.Next() {
		var record types.RunRecord
		var runAt, strategy string
		var durationNS int64
		if err := rows.Scan(
			&record.ID,
			&runAt,
			&record.Directory,
			&strategy,
			&record.Workers,
			&record.Files,
			&record.KeywordsHit,
			&durationNS,
			&record.ReportPath,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record.RunAt, err = parseTime(runAt)
		if err != nil {
			return nil, err
		}
		record.Strategy = types.Strategy(strategy)
		record.Duration = time.Duration(durationNS)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// Totals returns the number of recorded runs per strategy
func (s *Store) Totals(ctx context.Context) (map[types.Strategy]int64, error) {
	totals := make(map[types.Strategy]int64, len(types.Strategies))
	for _, strategy := range types.Strategies {
		totals[strategy] = 0
	}

	rows, err := s.db.QueryContext(ctx, "SELECT strategy, COUNT(*) FROM search_runs GROUP BY strategy")
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var strategy string
		var total int64
		if err := rows.Scan(&strategy, &total); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		totals[types.Strategy(strategy)] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return totals, nil
}

// parseTime accepts the layout written by Record and the RFC 3339 form the
// sqlite driver returns for DATETIME columns.
func parseTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(timeLayout, value, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse run time %q: %w", value, err)
	}
	return t.UTC(), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
