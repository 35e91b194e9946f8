package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"inkwell/internal/database"
	"inkwell/internal/observability"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema operations",
	Long: `Run database schema operations.

Subcommands:
  up      - Apply pending SQL migrations
  auto    - Run GORM automigrate regardless of DB_SCHEMA_MODE
  status  - Show schema mode and pending migrations
  down    - Roll back one migration`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(cmd.Context(), db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		observability.Logger.Info().Msg("sql migrations applied")
		return nil
	},
}

var migrateAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run GORM automigrate",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		observability.Logger.Info().Msg("automigrations applied")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema mode and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		return printStatus(status)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [version]",
	Short: "Roll back a migration, the latest one when no version is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			m, err := database.RollbackLatest(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			observability.Logger.Info().Int("version", m.Version).Str("name", m.Name).Msg("rolled back migration")
			return nil
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		observability.Logger.Info().Int("version", version).Msg("rolled back migration")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateAutoCmd, migrateStatusCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func openDB() (*gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func printStatus(status *database.SchemaStatus) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Mode:\t%s\n", status.Mode)
	fmt.Fprintf(w, "Environment:\t%s\n", status.Environment)
	fmt.Fprintf(w, "Runs SQL:\t%t\n", status.WillRunSQL)
	fmt.Fprintf(w, "Runs automigrate:\t%t\n", status.WillRunAutoMigrate)
	fmt.Fprintf(w, "Applied:\t%d\n", len(status.AppliedVersions))
	fmt.Fprintf(w, "Pending:\t%d\n", len(status.PendingMigrations))
	for _, m := range status.PendingMigrations {
		fmt.Fprintf(w, "  %06d\t%s\n", m.Version, m.Name)
	}
	return w.Flush()
}
