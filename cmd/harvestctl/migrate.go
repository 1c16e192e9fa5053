package main

import (
	"log/slog"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/use-agent/harvest/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the scraped_data table",
	Long:  "Applies the scraped_data schema to the database named by DATABASE_URL (and DATABASE_TOKEN). Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dsn, err := store.DSN(cfg.Credentials[store.CredentialURL], cfg.Credentials[store.CredentialToken])
		if err != nil {
			return err
		}

		pg, err := store.NewPostgres(ctx, dsn, cfg.Store.MaxConns)
		if err != nil {
			return eris.Wrap(err, "migrate: connect")
		}
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		slog.Info("scraped_data schema applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
