package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS notes (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					content TEXT NOT NULL DEFAULT '',
					folder TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME
				)`,
				`CREATE TABLE IF NOT EXISTS tasks (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					scheduled_time DATETIME,
					target_date DATETIME,
					is_completed BOOLEAN NOT NULL DEFAULT 0,
					priority TEXT NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '[]'
				)`,
				`CREATE TABLE IF NOT EXISTS locations (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					folder TEXT NOT NULL DEFAULT '',
					address TEXT NOT NULL DEFAULT '',
					city TEXT NOT NULL DEFAULT '',
					province TEXT NOT NULL DEFAULT '',
					country TEXT NOT NULL DEFAULT '',
					rating REAL NOT NULL DEFAULT 0,
					latitude REAL NOT NULL DEFAULT 0,
					longitude REAL NOT NULL DEFAULT 0,
					saved_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS emails (
					id TEXT PRIMARY KEY,
					subject TEXT NOT NULL,
					sender TEXT NOT NULL,
					body TEXT NOT NULL DEFAULT '',
					folder TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL,
					is_important BOOLEAN NOT NULL DEFAULT 0,
					is_read BOOLEAN NOT NULL DEFAULT 0
				)`,
				`CREATE TABLE IF NOT EXISTS receipts (
					id TEXT PRIMARY KEY,
					merchant TEXT NOT NULL,
					amount REAL NOT NULL,
					date DATETIME NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					payment_method TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					line_items TEXT NOT NULL DEFAULT '[]'
				)`,
				`CREATE INDEX IF NOT EXISTS idx_receipts_date ON receipts(date)`,
				`CREATE INDEX IF NOT EXISTS idx_emails_timestamp ON emails(timestamp)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add merchant profiles",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS merchant_profiles (
					name TEXT PRIMARY KEY COLLATE NOCASE,
					type TEXT NOT NULL DEFAULT '',
					products TEXT NOT NULL DEFAULT '[]',
					source TEXT NOT NULL DEFAULT 'AUTO',
					use_count INTEGER NOT NULL DEFAULT 0,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_merchant_profiles_source ON merchant_profiles(source)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add checkpoint metadata",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS checkpoint_metadata (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					file_size INTEGER NOT NULL DEFAULT 0,
					row_counts TEXT NOT NULL DEFAULT '{}',
					schema_version INTEGER NOT NULL,
					is_auto BOOLEAN NOT NULL DEFAULT 0
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
