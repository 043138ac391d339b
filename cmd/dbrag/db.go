package cmd

import (
	"fmt"

	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/db"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/dbrag/dbrag-server/internal/db/migrations"

	"github.com/uptrace/bun/migrate"

	"github.com/spf13/cobra"
)

var (
	dbDriver   drivers.Driver
	dbMigrator *migrate.Migrator
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Utility for database management",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Run the root command's env/config loading first; cobra only
		// calls the closest PersistentPreRunE in the chain.
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}

		if err := migrations.InitMigrations(); err != nil {
			return err
		}

		driver, err := db.NewConnection(cmd.Context(), config.MustGetConfig())
		if err != nil {
			return err
		}

		dbDriver = driver
		dbMigrator = migrate.NewMigrator(driver.GetDB(), migrations.Migrations)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if dbDriver != nil {
			return dbDriver.Close()
		}
		return nil
	},
}

func init() {
	setupMigrationCmd(dbCmd)
	rootCmd.AddCommand(dbCmd)
}

func setupMigrationCmd(cmd *cobra.Command) {
	migrationCmd := &cobra.Command{
		Use:   "migration",
		Short: "Utility for handling database migrations",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "create migration tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dbMigrator.Init(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "migrate database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbMigrator.Lock(cmd.Context()); err != nil {
				return err
			}
			defer dbMigrator.Unlock(cmd.Context()) //nolint:errcheck

			group, err := dbMigrator.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if group.IsZero() {
				fmt.Printf("there are no new migrations to run (database is up to date)\n")
				return nil
			}
			fmt.Printf("migrated to %s\n", group)
			return nil
		},
	}

	rollbackCmd := &cobra.Command{
		Use:   "rollback",
		Short: "rollback the last migration group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbMigrator.Lock(cmd.Context()); err != nil {
				return err
			}
			defer dbMigrator.Unlock(cmd.Context()) //nolint:errcheck

			group, err := dbMigrator.Rollback(cmd.Context())
			if err != nil {
				return err
			}
			if group.IsZero() {
				fmt.Printf("there are no groups to roll back\n")
				return nil
			}
			fmt.Printf("rolled back %s\n", group)
			return nil
		},
	}

	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Lock the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbMigrator.Lock(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("locked\n")
			return nil
		},
	}

	unlockCmd := &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbMigrator.Unlock(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("unlocked\n")
			return nil
		},
	}

	createGoCmd := &cobra.Command{
		Use:   "create-go",
		Short: "Create a Go migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := dbMigrator.CreateGoMigration(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("created migration file %s in %s\n", file.Name, file.Path)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status of the migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := dbMigrator.MigrationsWithStatus(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("migrations: %s\n", status)
			return nil
		},
	}

	markAppliedCmd := &cobra.Command{
		Use:   "mark-applied",
		Short: "Mark all migrations as applied without actually running them",
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := dbMigrator.Migrate(cmd.Context(), migrate.WithNopMigration())
			if err != nil {
				return err
			}
			if group.IsZero() {
				fmt.Printf("there are no new migrations to mark as applied\n")
				return nil
			}
			fmt.Printf("marked as applied %s\n", group)
			return nil
		},
	}

	migrationCmd.AddCommand(
		initCmd,
		migrateCmd,
		rollbackCmd,
		lockCmd,
		unlockCmd,
		createGoCmd,
		statusCmd,
		markAppliedCmd,
	)

	cmd.AddCommand(migrationCmd)
}
