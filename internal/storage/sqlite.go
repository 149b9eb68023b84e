// Package storage persists the user's records and merchant profiles in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/recollect/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections, and :memory: needs one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// NewCheckpointManager creates a checkpoint manager for this database.
func (s *SQLiteStorage) NewCheckpointManager() (*CheckpointManager, error) {
	return NewCheckpointManager(s.db, s.dbPath)
}

// LoadSnapshot reads every record into a read-only snapshot.
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return model.Snapshot{}, err
	}

	var (
		snap model.Snapshot
		err  error
	)
	if snap.Notes, err = s.loadNotes(ctx, s.db); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Tasks, err = s.loadTasks(ctx, s.db); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Locations, err = s.loadLocations(ctx, s.db); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Emails, err = s.loadEmails(ctx, s.db); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Receipts, err = s.queryReceipts(ctx, s.db, `
		SELECT id, merchant, amount, date, category, payment_method, notes, line_items
		FROM receipts
		ORDER BY date DESC, id
	`); err != nil {
		return model.Snapshot{}, err
	}

	return snap, nil
}

// CountRecords returns the number of stored records per kind.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (map[model.Kind]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tables := map[model.Kind]string{
		model.KindNote:     "notes",
		model.KindTask:     "tasks",
		model.KindLocation: "locations",
		model.KindEmail:    "emails",
		model.KindReceipt:  "receipts",
	}

	counts := make(map[model.Kind]int, len(tables))
	for kind, table := range tables {
		var n int
		// #nosec G201 - table names come from the fixed map above
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[kind] = n
	}
	return counts, nil
}
