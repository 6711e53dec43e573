package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/gieok/internal/config"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/store/postgres"
	"github.com/MrSnakeDoc/gieok/internal/utils"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres schema",
	Long: `Migrate applies or rolls back the embedded schema migrations against
GIEOK_DATABASE_URL.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(mg *postgres.Migrator) error {
			return mg.Up()
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(mg *postgres.Migrator) error {
			return mg.Down(downSteps)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(mg *postgres.Migrator) error {
			v, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%v\n", v, dirty)
			return nil
		})
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Long:  `Force clears a dirty state left by a failed migration.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version must be an integer: %w", err)
		}
		return withMigrator(cmd, func(mg *postgres.Migrator) error {
			return mg.Force(v)
		})
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	migrateCmd.AddCommand(migrateForceCmd)
}

func withMigrator(cmd *cobra.Command, fn func(*postgres.Migrator) error) error {
	cfg := config.LoadMigrate()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	pg, err := postgres.Open(cmd.Context(), postgres.Options{URL: cfg.DatabaseURL}, cfg.TenantID, loggerClient)
	if err != nil {
		return err
	}
	defer utils.MustClose(pg, "postgres", loggerClient)

	mg, err := postgres.NewMigrator(pg.DB(), loggerClient)
	if err != nil {
		return err
	}
	defer utils.MustClose(mg, "migrator", loggerClient)

	return fn(mg)
}
