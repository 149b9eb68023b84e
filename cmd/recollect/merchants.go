package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/model"
)

func merchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "merchants",
		Aliases: []string{"vendors"},
		Short:   "Manage merchant classifications",
		Long: `Merchant classifications decide which receipts match a question such as
"how much did I spend on coffee". Profiles come from a built-in table, from
the language model, or from you.`,
	}

	cmd.AddCommand(merchantsListCmd())
	cmd.AddCommand(merchantsSetCmd())
	cmd.AddCommand(merchantsLookupCmd())

	return cmd
}

func merchantsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored merchant profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			profiles, err := a.merchants.List(ctx)
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No merchant profiles stored yet"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderProfiles(profiles))
			return nil
		},
	}
}

func merchantsSetCmd() *cobra.Command {
	var (
		merchantType string
		products     []string
	)

	cmd := &cobra.Command{
		Use:   "set <merchant>",
		Short: "Classify a merchant by hand",
		Long: `Record a manual classification. Manual profiles are never overwritten by the
model.

Example:
  recollect merchants set "Blue Bottle" --type cafe --products coffee,pastries`,
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

			name := strings.Join(args, " ")
			profile, err := a.merchants.SetManual(ctx, name, merchantType, products)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved %s as %s", profile.Name, describeProfile(*profile))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&merchantType, "type", "t", "", "business type, e.g. cafe or grocery")
	cmd.Flags().StringSliceVarP(&products, "products", "p", nil, "products sold")

	return cmd
}

func merchantsLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <merchant>...",
		Short: "Resolve merchant names to profiles",
		Long: `Resolve names through the cache, the stored profiles, the built-in table and,
when configured, the language model. New classifications are stored.`,
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

			found, err := a.merchants.Lookup(ctx, args)
			if err != nil {
				slog.Warn("Merchant lookup incomplete", "error", err)
			}

			profiles := make([]model.MerchantProfile, 0, len(args))
			for _, name := range args {
				if p, ok := found[name]; ok {
					profiles = append(profiles, p)
					continue
				}
				profiles = append(profiles, model.MerchantProfile{Name: name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProfiles(profiles))
			return nil
		},
	}
}

func renderProfiles(profiles []model.MerchantProfile) string {
	sorted := append([]model.MerchantProfile(nil), profiles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	rows := make([][]string, 0, len(sorted))
	for _, p := range sorted {
		kind := p.Type
		if p.IsUnknown() {
			kind = "unknown"
		}
		uses := ""
		if p.UseCount > 0 {
			uses = strconv.Itoa(p.UseCount)
		}
		rows = append(rows, []string{p.Name, kind, strings.Join(p.Products, ", "), string(p.Source), uses})
	}
	return cli.RenderTable([]string{"Merchant", "Type", "Products", "Source", "Uses"}, rows)
}

func describeProfile(p model.MerchantProfile) string {
	switch {
	case p.Type != "" && len(p.Products) > 0:
		return fmt.Sprintf("%s (%s)", p.Type, strings.Join(p.Products, ", "))
	case p.Type != "":
		return p.Type
	default:
		return strings.Join(p.Products, ", ")
	}
}
