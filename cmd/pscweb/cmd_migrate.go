package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OptimisticPessimist/pscweb3/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, d, err := openMigrated(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d applied (%s)\n", database.SchemaVersion, d.Driver)
		return nil
	},
}
