package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var (
		dryRun       bool
		verbose      bool
		noCheckpoint bool
	)

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import receipts from OFX/QFX bank statements",
		Long: `Import card and account debits from OFX or QFX (Quicken) files exported
from your bank. Each debit becomes a receipt. Re-importing a statement
replaces the receipts it produced earlier.

Examples:
  # Import single file
  recollect import-ofx ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  recollect import-ofx ~/Downloads/*.qfx

  # Preview without saving
  recollect import-ofx --dry-run ~/Downloads/Chase/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			slog.Info(cli.ReceiptIcon+" Importing OFX files...",
				"file_count", len(files),
				"dry_run", dryRun)

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
			ctx := handler.HandleInterrupts(cmd.Context(), "recollect import-ofx "+strings.Join(args, " "))

			receipts, perFile := parseStatements(ctx, ofx.NewParser(), files)
			if handler.WasInterrupted() {
				return nil
			}
			if len(receipts) == 0 {
				slog.Warn("No debits found in any file")
				return nil
			}

			out := cmd.OutOrStdout()
			printStatementSummary(out, receipts, perFile, verbose)

			if dryRun {
				slog.Info("🔍 Dry run complete - no data saved")
				return nil
			}

			_, store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					slog.Error("Failed to close storage", "error", cerr)
				}
			}()

			if !noCheckpoint {
				autoCheckpoint(ctx, store, "import-ofx")
			}

			if err := store.SaveReceipts(ctx, receipts); err != nil {
				if handler.WasInterrupted() {
					return nil
				}
				return fmt.Errorf("failed to save receipts: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d receipts", len(receipts))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview import without saving")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show every parsed receipt")
	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "skip the automatic checkpoint before importing")

	return cmd
}

// expandFiles resolves glob patterns. Patterns without matches are kept when
// they name an existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				slog.Warn("No files found matching pattern", "pattern", pattern)
				continue
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseStatements parses every file, dropping receipts already seen in an
// earlier file. Unreadable files are logged and skipped.
func parseStatements(ctx context.Context, parser *ofx.Parser, files []string) ([]model.Receipt, map[string]int) {
	var receipts []model.Receipt
	seen := make(map[string]bool)
	perFile := make(map[string]int, len(files))

	progress := cli.NewProgress(nil, len(files), "Parsing statements...")
	defer progress.Finish()

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		parsed, err := parseStatement(ctx, parser, path)
		progress.Step(1)
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, r := range parsed {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			receipts = append(receipts, r)
			added++
		}

		perFile[filepath.Base(path)] = added
		slog.Debug("Processed file",
			"file", filepath.Base(path),
			"debits_found", len(parsed),
			"added", added,
			"duplicates", len(parsed)-added)
	}
	return receipts, perFile
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) ([]model.Receipt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("Failed to close file", "file", path, "error", cerr)
		}
	}()
	return parser.ParseFile(ctx, f)
}

func printStatementSummary(w io.Writer, receipts []model.Receipt, perFile map[string]int, verbose bool) {
	oldest, newest := receipts[0].Date, receipts[0].Date
	total := 0.0
	for _, r := range receipts {
		if r.Date.Before(oldest) {
			oldest = r.Date
		}
		if r.Date.After(newest) {
			newest = r.Date
		}
		total += r.Amount
	}

	files := make([]string, 0, len(perFile))
	for f := range perFile {
		files = append(files, f)
	}
	sort.Strings(files)

	fmt.Fprintln(w, cli.FormatTitle("File import summary"))
	for _, f := range files {
		fmt.Fprintf(w, "  - %s: %d receipts\n", f, perFile[f])
	}
	fmt.Fprintf(w, "\n📅 Date range: %s to %s (%d days)\n",
		oldest.Format(dateLayout),
		newest.Format(dateLayout),
		int(newest.Sub(oldest)/(24*time.Hour)))
	fmt.Fprintf(w, "💰 Total spent: $%.2f\n\n", total)

	limit := 5
	if verbose {
		limit = len(receipts)
	}
	rows := make([][]string, 0, min(limit, len(receipts)))
	for i, r := range receipts {
		if i >= limit {
			break
		}
		rows = append(rows, []string{r.Date.Format(dateLayout), r.Merchant, fmt.Sprintf("$%.2f", r.Amount), r.Category})
	}
	fmt.Fprintln(w, cli.RenderTable([]string{"Date", "Merchant", "Amount", "Category"}, rows))
}
