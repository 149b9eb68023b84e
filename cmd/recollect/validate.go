package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/validator"
)

func validateCmd() *cobra.Command {
	var (
		flags    intentFlags
		response string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "validate [question]",
		Short: "Check a model reply against the context for a question",
		Long: `Rebuild the context for a question and validate a reply that was produced
elsewhere. The reply is read from --response, or from stdin when it is "-".

Example:
  recollect context "coffee spending" -i expenses -p "this week" --prompt | my-model > reply.json
  recollect validate "coffee spending" -i expenses -p "this week" --response reply.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readResponse(cmd.InOrStdin(), response)
			if err != nil {
				return err
			}

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

			fc, err := a.engine.Retrieve(ctx, req)
			if err != nil {
				return err
			}

			result, err := a.engine.ValidateRaw(raw, fc)
			if err != nil {
				return fmt.Errorf("failed to decode reply: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, validator.NewFormatter().Format(result))
			}

			if !result.Accepted() {
				return fmt.Errorf("reply was not accepted: %s", result.Status)
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&response, "response", "r", "", "file containing the model reply, or - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the validation result as JSON")
	_ = cmd.MarkFlagRequired("response")

	return cmd
}

func readResponse(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read reply from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}
	return data, nil
}
