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

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/mintmerge/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "history.db"

// timeLayout stores timestamps in UTC with fixed-width fractions so that
// text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB provides SQLite-based storage for build records.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrNotFound is returned by Open when the database does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // Already returning an error
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Already returning an error
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		root TEXT NOT NULL,
		output_path TEXT NOT NULL,
		backup_path TEXT,
		fragment_count INTEGER NOT NULL DEFAULT 0,
		digest TEXT,
		fragment_paths TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_builds_output ON builds(output_path);
	CREATE INDEX IF NOT EXISTS idx_builds_timestamp ON builds(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveBuild stores a build record and returns its row ID.
// record.ID is set to the new row ID.
func (hdb *HistoryDB) SaveBuild(ctx context.Context, record *model.BuildRecord) (int64, error) {
	paths := record.FragmentPaths
	if paths == nil {
		paths = []string{}
	}
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize fragment paths: %w", err)
	}

	query := `
	INSERT INTO builds (build_id, timestamp, root, output_path, backup_path, fragment_count, digest, fragment_paths)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		record.BuildID,
		record.Timestamp.UTC().Format(timeLayout),
		record.Root,
		record.OutputPath,
		record.BackupPath,
		record.FragmentCount,
		record.Digest,
		string(pathsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save build: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get build id: %w", err)
	}
	record.ID = id

	return id, nil
}

// selectBuilds is the column list shared by the read queries.
const selectBuilds = `
	SELECT id, build_id, timestamp, root, output_path, backup_path, fragment_count, digest, fragment_paths
	FROM builds
	`

// ListBuilds returns recorded builds, newest first.
// limit <= 0 returns all builds.
func (hdb *HistoryDB) ListBuilds(ctx context.Context, limit int) ([]*model.BuildRecord, error) {
	query := selectBuilds + `ORDER BY timestamp DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return hdb.queryBuilds(ctx, query, args...)
}

// LatestBuilds returns the n most recent builds that wrote outputPath, newest first.
func (hdb *HistoryDB) LatestBuilds(ctx context.Context, outputPath string, n int) ([]*model.BuildRecord, error) {
	query := selectBuilds + `
	WHERE output_path = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	return hdb.queryBuilds(ctx, query, outputPath, n)
}

// GetBuildByID retrieves a build record by row ID.
// Returns nil without error if no such build exists.
func (hdb *HistoryDB) GetBuildByID(ctx context.Context, id int64) (*model.BuildRecord, error) {
	records, err := hdb.queryBuilds(ctx, selectBuilds+`WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil //nolint:nilnil // Absence is not an error
	}
	return records[0], nil
}

// queryBuilds runs a query selecting the selectBuilds columns.
func (hdb *HistoryDB) queryBuilds(ctx context.Context, query string, args ...any) ([]*model.BuildRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	results := make([]*model.BuildRecord, 0)
	for rows.Next() {
		var (
			r          model.BuildRecord
			timestamp  string
			backupPath sql.NullString
			digest     sql.NullString
			pathsJSON  sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.BuildID, &timestamp, &r.Root, &r.OutputPath,
			&backupPath, &r.FragmentCount, &digest, &pathsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}

		r.Timestamp = parseTimestamp(timestamp)
		r.BackupPath = backupPath.String
		r.Digest = digest.String
		r.FragmentPaths = []string{}
		if pathsJSON.Valid && pathsJSON.String != "" {
			if err := json.Unmarshal([]byte(pathsJSON.String), &r.FragmentPaths); err != nil {
				return nil, fmt.Errorf("failed to parse fragment paths: %w", err)
			}
		}

		results = append(results, &r)
	}

	return results, rows.Err()
}

// timestampFormats lists the formats stored timestamps are parsed with.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp. Returns the zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
