package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/scooter-intake/internal/repo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the acceptance and idempotency tables in DB_PATH.

serve migrates on start as well; this command is for provisioning.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	// bootstrap already migrated; purge what has expired while we are here.
	n, err := repo.PurgeExpiredIdempotency(cmd.Context(), a.db, a.now())
	if err != nil {
		return fmt.Errorf("purge idempotency keys: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema up to date in %s (%d expired keys purged)\n", a.cfg.DBPath, n)
	return nil
}
