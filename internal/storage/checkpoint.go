package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxAutoCheckpoints is how many automatic checkpoints are kept.
const maxAutoCheckpoints = 5

// CheckpointManager snapshots the database file before destructive work.
type CheckpointManager struct {
	db             *sql.DB
	now            func() time.Time
	dbPath         string
	checkpointsDir string
}

// CheckpointInfo describes a stored checkpoint.
type CheckpointInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// Checkpoint errors.
var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrCheckpointExists   = errors.New("checkpoint already exists")
	ErrInMemoryDatabase   = errors.New("in-memory databases cannot be checkpointed")
	ErrInvalidCheckpoint  = errors.New("invalid checkpoint tag: cannot contain path separators")
)

// checkpointTables are counted into each checkpoint's metadata.
var checkpointTables = []string{"notes", "tasks", "locations", "emails", "receipts", "merchant_profiles"}

// NewCheckpointManager creates a checkpoint manager that writes next to dbPath.
func NewCheckpointManager(db *sql.DB, dbPath string) (*CheckpointManager, error) {
	if dbPath == ":memory:" {
		return nil, ErrInMemoryDatabase
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	checkpointsDir := filepath.Join(filepath.Dir(absPath), "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{
		db:             db,
		now:            time.Now,
		dbPath:         absPath,
		checkpointsDir: checkpointsDir,
	}, nil
}

// Create writes a consistent copy of the database under tag. An empty tag
// is derived from the current time.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint creates a checkpoint before operation and prunes old
// automatic checkpoints.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, operation string) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", operation, cm.now().Format("2006-01-02-150405"))
	info, err := cm.create(ctx, tag, fmt.Sprintf("Automatic checkpoint before %s", operation), true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, isAuto bool) (*CheckpointInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if tag == "" {
		tag = fmt.Sprintf("checkpoint-%s", cm.now().Format("2006-01-02-150405"))
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	checkpointPath := cm.dataPath(tag)
	if _, err := os.Stat(checkpointPath); err == nil {
		return nil, ErrCheckpointExists
	}

	var schemaVersion int
	if err := cm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	if _, err := cm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	// VACUUM INTO takes a bound parameter for the destination file.
	if _, err := cm.db.ExecContext(ctx, "VACUUM INTO ?", checkpointPath); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}

	stat, err := os.Stat(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	info := CheckpointInfo{
		ID:            tag,
		CreatedAt:     cm.now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     cm.rowCounts(ctx),
		SchemaVersion: schemaVersion,
		IsAuto:        isAuto,
	}

	if err := writeMetadata(cm.metaPath(tag), info); err != nil {
		if rmErr := os.Remove(checkpointPath); rmErr != nil {
			slog.Error("failed to remove checkpoint file after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	if err := cm.storeMetadata(ctx, info); err != nil {
		slog.Warn("failed to store checkpoint metadata in database", "error", err)
	}

	slog.Info("Created checkpoint", "id", tag, "size", info.FileSize, "auto", isAuto)
	return &info, nil
}

// List returns every checkpoint, newest first. Unreadable metadata files are skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.checkpointsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := readMetadata(filepath.Join(cm.checkpointsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Delete removes a checkpoint and its metadata.
func (cm *CheckpointManager) Delete(ctx context.Context, id string) error {
	if err := validateTag(id); err != nil {
		return err
	}

	if err := os.Remove(cm.dataPath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(cm.metaPath(id)); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", id)
	}
	if _, err := cm.db.ExecContext(ctx, "DELETE FROM checkpoint_metadata WHERE id = ?", id); err != nil {
		slog.Debug("failed to remove checkpoint metadata from database", "error", err, "id", id)
	}
	return nil
}

func (cm *CheckpointManager) pruneAuto(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	autoCount := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		autoCount++
		if autoCount > maxAutoCheckpoints {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("failed to delete old auto-checkpoint", "error", err, "checkpoint", cp.ID)
			}
		}
	}
	return nil
}

func (cm *CheckpointManager) rowCounts(ctx context.Context) map[string]int {
	counts := make(map[string]int, len(checkpointTables))
	for _, table := range checkpointTables {
		var n int
		// #nosec G201 - table names come from the fixed list above
		if err := cm.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			continue
		}
		counts[table] = n
	}
	return counts
}

func (cm *CheckpointManager) storeMetadata(ctx context.Context, info CheckpointInfo) error {
	counts, err := json.Marshal(info.RowCounts)
	if err != nil {
		return err
	}
	_, err = cm.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checkpoint_metadata
		(id, created_at, description, file_size, row_counts, schema_version, is_auto)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, info.ID, info.CreatedAt, info.Description, info.FileSize, string(counts), info.SchemaVersion, info.IsAuto)
	return err
}

func (cm *CheckpointManager) dataPath(tag string) string {
	return filepath.Join(cm.checkpointsDir, tag+".db")
}

func (cm *CheckpointManager) metaPath(tag string) string {
	return filepath.Join(cm.checkpointsDir, tag+".meta.json")
}

func validateTag(tag string) error {
	if strings.ContainsAny(tag, `/\`) || strings.Contains(tag, "..") {
		return ErrInvalidCheckpoint
	}
	return validateString(tag, "tag")
}

func writeMetadata(path string, info CheckpointInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func readMetadata(path string) (*CheckpointInfo, error) {
	// #nosec G304 - path is built from the checkpoints directory listing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
