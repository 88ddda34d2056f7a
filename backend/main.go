package main

import (
	"fmt"
	"log"
	"os"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "taskboard",
		Short:        "Task management backend",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	})
	root.AddCommand(migrateCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Printf("❌ Failed to initialize application: %v", err)
		return err
	}

	app.setupRoutes()
	return app.startServer()
}

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withMigrationDB(func(pool *database.DatabasePool, mc *repositories.MigrationConfig) error {
				return repositories.RunMigrations(pool.DB, mc)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withMigrationDB(func(pool *database.DatabasePool, mc *repositories.MigrationConfig) error {
				return repositories.RollbackMigration(pool.DB, mc)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: withMigrationDB(func(pool *database.DatabasePool, mc *repositories.MigrationConfig) error {
				version, dirty, err := repositories.GetMigrationVersion(pool.DB, mc)
				if err != nil {
					return err
				}
				fmt.Printf("version %d (dirty: %v)\n", version, dirty)
				return nil
			}),
		},
	)
	return cmd
}

func withMigrationDB(run func(*database.DatabasePool, *repositories.MigrationConfig) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("migrations only apply to the postgres driver, got %q", cfg.Database.Driver)
		}

		pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg.Database))
		if err != nil {
			return err
		}
		defer pool.Close()

		return run(pool, migrationConfig(cfg))
	}
}

func migrationConfig(cfg *config.Config) *repositories.MigrationConfig {
	mc := repositories.DefaultMigrationConfig()
	mc.DBName = cfg.Database.Name
	return mc
}
