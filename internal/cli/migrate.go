package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pkgpg "github.com/bibbank/registry-risk/pkg/postgres"
)

const defaultMigrationsDir = "internal/infrastructure/postgres/migrations"

// MigrateCommand creates the migrate command with up and down subcommands.
// The database URL defaults to DATABASE_URL.
func MigrateCommand() *cobra.Command {
	var (
		dbURL string
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if dbURL == "" {
				dbURL = os.Getenv("DATABASE_URL")
			}
			if dbURL == "" {
				return fmt.Errorf("--db or DATABASE_URL is required")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection string (overrides DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&dir, "dir", defaultMigrationsDir, "Migrations directory")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := pkgpg.RunMigrations(dbURL, "file://"+dir)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return err
		},
	}

	var confirm bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all tables)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("refusing to drop the schema without --yes")
			}
			if err := pkgpg.RunMigrationsDown(dbURL, "file://"+dir); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "schema rolled back")
			return err
		},
	}
	down.Flags().BoolVar(&confirm, "yes", false, "Confirm dropping the schema")

	cmd.AddCommand(up, down)
	return cmd
}
