package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/service"
	"github.com/Veraticus/recollect/internal/storage"
)

func importCmd() *cobra.Command {
	var noCheckpoint bool

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import records from JSON snapshot files",
		Long: `Import notes, tasks, locations, emails and receipts from JSON files. Each
file holds an object with any of the keys notes, tasks, locations, emails
and receipts. Records replace stored records with the same id.

Examples:
  recollect import export.json
  recollect import notes.json calendar.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var merged model.Snapshot
			for _, path := range args {
				snap, err := loadSnapshotFile(path)
				if err != nil {
					return err
				}
				merged = mergeSnapshots(merged, snap)
			}

			total := snapshotSize(merged)
			if total == 0 {
				return fmt.Errorf("no records found in %d file(s)", len(args))
			}

			_, store, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					slog.Error("Failed to close storage", "error", cerr)
				}
			}()

			if !noCheckpoint {
				autoCheckpoint(cmd.Context(), store, "import")
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
			ctx := handler.HandleInterrupts(cmd.Context(), "recollect import "+strings.Join(args, " "))

			progress := cli.NewProgress(cmd.ErrOrStderr(), total, "Importing records...")
			saved, err := saveSnapshot(ctx, store, merged, progress)
			if err != nil {
				if handler.WasInterrupted() {
					return nil
				}
				return err
			}
			progress.Finish()

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d records", total)))
			for _, kind := range model.AllKinds {
				if n := saved[kind]; n > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %d\n", kind, n)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "skip the automatic checkpoint before importing")
	return cmd
}

func loadSnapshotFile(path string) (model.Snapshot, error) {
	var snap model.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return snap, nil
}

func mergeSnapshots(a, b model.Snapshot) model.Snapshot {
	return model.Snapshot{
		Notes:     append(a.Notes, b.Notes...),
		Tasks:     append(a.Tasks, b.Tasks...),
		Locations: append(a.Locations, b.Locations...),
		Emails:    append(a.Emails, b.Emails...),
		Receipts:  append(a.Receipts, b.Receipts...),
	}
}

func snapshotSize(snap model.Snapshot) int {
	return len(snap.Notes) + len(snap.Tasks) + len(snap.Locations) + len(snap.Emails) + len(snap.Receipts)
}

// saveSnapshot writes each kind in its own transaction, advancing progress
// per kind. Kinds saved before a failure stay saved.
func saveSnapshot(ctx context.Context, store service.Storage, snap model.Snapshot, progress *cli.Progress) (map[model.Kind]int, error) {
	saved := make(map[model.Kind]int, len(model.AllKinds))
	steps := []struct {
		save func() error
		kind model.Kind
		n    int
	}{
		{kind: model.KindNote, n: len(snap.Notes), save: func() error { return store.SaveNotes(ctx, snap.Notes) }},
		{kind: model.KindTask, n: len(snap.Tasks), save: func() error { return store.SaveTasks(ctx, snap.Tasks) }},
		{kind: model.KindLocation, n: len(snap.Locations), save: func() error { return store.SaveLocations(ctx, snap.Locations) }},
		{kind: model.KindEmail, n: len(snap.Emails), save: func() error { return store.SaveEmails(ctx, snap.Emails) }},
		{kind: model.KindReceipt, n: len(snap.Receipts), save: func() error { return store.SaveReceipts(ctx, snap.Receipts) }},
	}

	for _, step := range steps {
		if step.n == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if progress != nil {
			progress.Describe(fmt.Sprintf("Importing %ss...", step.kind))
		}
		if err := step.save(); err != nil {
			return saved, fmt.Errorf("failed to save %ss: %w", step.kind, err)
		}
		saved[step.kind] = step.n
		if progress != nil {
			progress.Step(step.n)
		}
		slog.Debug("Saved records", "kind", step.kind, "count", step.n)
	}
	return saved, nil
}

// autoCheckpoint snapshots the database before a write. Failures are logged
// and never block the import.
func autoCheckpoint(ctx context.Context, store *storage.SQLiteStorage, operation string) {
	manager, err := store.NewCheckpointManager()
	if errors.Is(err, storage.ErrInMemoryDatabase) {
		return
	}
	if err != nil {
		slog.Warn("Failed to open checkpoints", "error", err)
		return
	}
	info, err := manager.AutoCheckpoint(ctx, operation)
	if err != nil {
		slog.Warn("Failed to create automatic checkpoint", "operation", operation, "error", err)
		return
	}
	slog.Info("Created checkpoint", "id", info.ID)
}
