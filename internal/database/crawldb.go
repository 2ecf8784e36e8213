package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitecrawl/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "sitecrawl.db"

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// CrawlDB provides SQLite-based storage for crawl runs and pages.
//
// Design decision: We use a single database file for every run rather
// than one file per domain. This keeps history queries across domains
// simple and makes backups a single-file copy.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// DefaultDir returns the XDG data directory used when no directory is given,
// typically ~/.local/share/sitecrawl.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "sitecrawl")
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs record one crawl of one domain
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		visited INTEGER DEFAULT 0,
		crawled INTEGER DEFAULT 0,
		no_content INTEGER DEFAULT 0,
		links_found INTEGER DEFAULT 0,
		cancelled INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages store every record emitted during a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		path TEXT NOT NULL,
		links TEXT NOT NULL,
		digest TEXT,
		crawled_at TEXT NOT NULL,
		UNIQUE(run_id, path)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_path ON pages(path);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is a stored crawl run.
type Run struct {
	ID         string
	Domain     string
	StartedAt  time.Time
	FinishedAt time.Time
	Visited    int
	Crawled    int
	NoContent  int
	LinksFound int
	Cancelled  bool
}

// Finished reports whether the run was closed with FinishRun.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// StartRun inserts a new run for domain and returns its generated id.
func (cdb *CrawlDB) StartRun(ctx context.Context, domain string, startedAt time.Time) (string, error) {
	id := uuid.NewString()

	_, err := cdb.db.ExecContext(ctx,
		`INSERT INTO runs (id, domain, started_at) VALUES (?, ?, ?)`,
		id, domain, formatTimestamp(startedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counters of a run.
func (cdb *CrawlDB) FinishRun(ctx context.Context, summary *model.Summary) error {
	result, err := cdb.db.ExecContext(ctx, `
	UPDATE runs SET
		finished_at = ?,
		visited = ?,
		crawled = ?,
		no_content = ?,
		links_found = ?,
		cancelled = ?
	WHERE id = ?
	`,
		formatTimestamp(summary.FinishedAt),
		summary.Visited,
		summary.Crawled,
		summary.NoContent,
		summary.LinksFound,
		summary.Cancelled,
		summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, summary.RunID)
	}
	return nil
}

// SavePage inserts or updates a page record of a run.
// Uses UPSERT so a path is stored once per run.
func (cdb *CrawlDB) SavePage(ctx context.Context, runID string, record model.Record) error {
	links := record.Links
	if links == nil {
		links = []string{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to serialize links: %w", err)
	}

	_, err = cdb.db.ExecContext(ctx, `
	INSERT INTO pages (run_id, path, links, digest, crawled_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(run_id, path) DO UPDATE SET
		links = excluded.links,
		digest = excluded.digest,
		crawled_at = excluded.crawled_at
	`,
		runID,
		record.Path,
		string(linksJSON),
		record.Digest,
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id.
func (cdb *CrawlDB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := cdb.db.QueryRowContext(ctx, `
	SELECT id, domain, started_at, finished_at, visited, crawled, no_content, links_found, cancelled
	FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
// An empty domain lists runs of every domain. A limit <= 0 means no limit.
func (cdb *CrawlDB) ListRuns(ctx context.Context, domain string, limit int) ([]Run, error) {
	query := `
	SELECT id, domain, started_at, finished_at, visited, crawled, no_content, links_found, cancelled
	FROM runs
	WHERE (? = '' OR domain = ?)
	ORDER BY started_at DESC
	`
	args := []any{domain, domain}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetPages returns the page records of a run ordered by path.
func (cdb *CrawlDB) GetPages(ctx context.Context, runID string) ([]model.Record, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT path, links, digest FROM pages WHERE run_id = ? ORDER BY path`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var (
			record    model.Record
			linksJSON string
			digest    sql.NullString
		)
		if err := rows.Scan(&record.Path, &linksJSON, &digest); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		if err := json.Unmarshal([]byte(linksJSON), &record.Links); err != nil {
			return nil, fmt.Errorf("failed to deserialize links of %s: %w", record.Path, err)
		}
		record.Digest = digest.String
		records = append(records, record)
	}
	return records, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Domain,
		&startedAt,
		&finishedAt,
		&run.Visited,
		&run.Crawled,
		&run.NoContent,
		&run.LinksFound,
		&run.Cancelled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &run, nil
}

// timestampLayout has a fixed-width fraction so lexical order matches
// chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp formats t in UTC using timestampLayout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // timestampLayout and RFC3339 variants
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
