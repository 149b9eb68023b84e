package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/model"
)

func contextCmd() *cobra.Command {
	var (
		flags      intentFlags
		showPrompt bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "context [question]",
		Short: "Show the context document a question would send to the model",
		Long: `Run retrieval for a question without calling the model and print the
structured context document. With --prompt the rendered system prompt and
user message are printed instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil {
					slog.Error("Failed to close app", "error", cerr)
				}
			}()

			req, err := flags.request(strings.Join(args, " "), time.Now(), a.cfg.Location)
			if err != nil {
				return err
			}

			prepared, err := a.engine.Prepare(ctx, req)
			if err != nil {
				return err
			}

			slog.Info("Prepared context",
				"request_id", prepared.RequestID,
				"notes", prepared.Filtered.Count(model.KindNote),
				"tasks", prepared.Filtered.Count(model.KindTask),
				"locations", prepared.Filtered.Count(model.KindLocation),
				"emails", prepared.Filtered.Count(model.KindEmail),
				"receipts", prepared.Filtered.Count(model.KindReceipt),
				"bytes", len(prepared.Document))

			if output != "" {
				if err := os.WriteFile(output, prepared.Document, 0600); err != nil {
					return fmt.Errorf("failed to write context: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Context written to "+output))
				return nil
			}

			out := cmd.OutOrStdout()
			if showPrompt {
				fmt.Fprintln(out, cli.FormatTitle("System prompt"))
				fmt.Fprintln(out, prepared.Prompt.System)
				fmt.Fprintln(out, cli.FormatTitle("User message"))
				fmt.Fprintln(out, prepared.Prompt.User)
				return nil
			}
			fmt.Fprintln(out, string(prepared.Document))
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&showPrompt, "prompt", false, "print the rendered prompt instead of the document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file")

	return cmd
}
