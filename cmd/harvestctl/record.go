package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/harvest/export"
	"github.com/use-agent/harvest/store"
)

var recordCmd = &cobra.Command{
	Use:   "record <key>",
	Short: "Print a stored record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		stores := store.NewConnector(cfg.Store.MaxConns, nil)
		defer stores.Close()

		st, err := stores.Open(ctx, cfg.Credentials)
		if err != nil {
			return err
		}

		rec, err := st.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return export.WriteJSON(os.Stdout, rec)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}
