package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/config"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/storage"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Bring the database schema up to date. Every other command does this on startup.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					slog.Error("Failed to close storage", "error", cerr)
				}
			}()

			before, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if status {
				fmt.Fprintf(out, "Database: %s\nSchema version: %d (latest %d)\n",
					cfg.Database.Path, before, storage.ExpectedSchemaVersion)
				if before == storage.ExpectedSchemaVersion {
					counts, err := store.CountRecords(ctx)
					if err != nil {
						return err
					}
					for _, kind := range model.AllKinds {
						fmt.Fprintf(out, "  %-10s %d\n", kind, counts[kind])
					}
				}
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			if before == storage.ExpectedSchemaVersion {
				fmt.Fprintln(out, cli.FormatInfo("Database is already up to date"))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated schema from version %d to %d", before, storage.ExpectedSchemaVersion)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show the schema version without migrating")
	return cmd
}
