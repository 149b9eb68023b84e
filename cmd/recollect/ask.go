package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/pipeline"
	"github.com/Veraticus/recollect/internal/validator"
)

func askCmd() *cobra.Command {
	var (
		flags   intentFlags
		asJSON  bool
		showRaw bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from your data",
		Long: `Retrieve the records relevant to a question, send them to the configured
language model, and show the answer only if it is consistent with your data.

Examples:
  recollect ask "how much did I spend on coffee this week" -i expenses -p "this week" -e coffee
  recollect ask "what's on my plate today" -i tasks --also emails -p today
  recollect ask "good ramen nearby" -i locations -c ramen --min-rating 4`,
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

			question := strings.Join(args, " ")
			req, err := flags.request(question, time.Now(), a.cfg.Location)
			if err != nil {
				return err
			}

			answer, err := a.engine.Answer(ctx, req)
			if errors.Is(err, pipeline.ErrNoModel) {
				return common.NewUserError(fmt.Sprintf(
					"set llm.api_key or %s_API_KEY, or use 'recollect context --prompt' to inspect the request",
					strings.ToUpper(a.cfg.LLM.Provider)), err)
			}
			if err != nil {
				return err
			}

			slog.Debug("Answered question",
				"request_id", answer.RequestID,
				"status", answer.Result.Status,
				"attempts", answer.Attempts)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(answer.Result)
			}

			if showRaw {
				fmt.Fprintln(out, cli.RenderBox(cli.RobotIcon+" Raw reply", answer.Raw))
			}
			fmt.Fprintln(out, validator.NewFormatter().Format(answer.Result))
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the validation result as JSON")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "also print the model's raw reply")

	return cmd
}
