package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list and delete database checkpoints.

Imports take an automatic checkpoint first; the five most recent automatic
checkpoints are kept.`,
		Example: `  # Create a checkpoint before a large import
  recollect checkpoint create --tag "pre-2025-import"

  # List all checkpoints
  recollect checkpoint list

  # Delete an old checkpoint
  recollect checkpoint delete pre-2025-import`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// withCheckpoints opens storage and runs fn with its checkpoint manager.
func withCheckpoints(ctx context.Context, fn func(*storage.CheckpointManager) error) error {
	_, store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Error("Failed to close storage", "error", cerr)
		}
	}()

	manager, err := store.NewCheckpointManager()
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return fn(manager)
}

func createCheckpointCmd() *cobra.Command {
	var tag, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCheckpoints(cmd.Context(), func(manager *storage.CheckpointManager) error {
				info, err := manager.Create(cmd.Context(), tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s Created checkpoint %s (%s)\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(info.ID),
					formatFileSize(info.FileSize))
				if info.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", info.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "checkpoint tag (generated from the time if empty)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCheckpoints(cmd.Context(), func(manager *storage.CheckpointManager) error {
				checkpoints, err := manager.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}
				if len(checkpoints) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No checkpoints found"))
					return nil
				}

				rows := make([][]string, 0, len(checkpoints))
				for _, cp := range checkpoints {
					kind := "manual"
					if cp.IsAuto {
						kind = "auto"
					}
					rows = append(rows, []string{
						cp.ID,
						cp.CreatedAt.Format("2006-01-02 15:04"),
						formatFileSize(cp.FileSize),
						kind,
						summarizeCounts(cp.RowCounts),
						cp.Description,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
					[]string{"Tag", "Created", "Size", "Type", "Records", "Description"}, rows))
				return nil
			})
		},
	}
}

func deleteCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCheckpoints(cmd.Context(), func(manager *storage.CheckpointManager) error {
				if err := manager.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted checkpoint "+args[0]))
				return nil
			})
		},
	}
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// summarizeCounts renders record counts in a stable order.
func summarizeCounts(counts map[string]int) string {
	tables := []string{"notes", "tasks", "locations", "emails", "receipts"}
	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		if n := counts[table]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, table))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}
