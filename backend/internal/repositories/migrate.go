package repositories

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type MigrationConfig struct {
	DBName     string
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		DBName:     "taskboard",
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

func RunMigrations(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Println("🔄 Starting database migrations")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := waitForDatabase(sqlDB, config.MaxRetries, config.RetryDelay); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	m, err := newMigrator(sqlDB, config)
	if err != nil {
		return err
	}

	currentVersion, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("📋 No migrations applied yet")
	case err != nil:
		log.Printf("⚠️  Could not get current migration version: %v", err)
	default:
		log.Printf("📋 Current migration version: %d (dirty: %v)", currentVersion, dirty)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("✅ Database schema is up to date - no migrations needed")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get final migration version: %w", err)
	}

	log.Printf("✅ Database migrations completed (version %d, dirty: %v)", finalVersion, dirty)
	return nil
}

func RollbackMigration(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Println("⬇️  Rolling back last migration...")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	m, err := newMigrator(sqlDB, config)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	log.Println("✅ Migration rolled back successfully")
	return nil
}

func GetMigrationVersion(db *gorm.DB, config *MigrationConfig) (uint, bool, error) {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get database instance: %w", err)
	}

	m, err := newMigrator(sqlDB, config)
	if err != nil {
		return 0, false, err
	}

	return m.Version()
}

func newMigrator(sqlDB *sql.DB, config *MigrationConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		DatabaseName:    config.DBName,
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, config.DBName, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

func waitForDatabase(db *sql.DB, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := db.Ping(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Printf("⏳ Database not ready, retrying in %v... (attempt %d/%d)", retryDelay, i+1, maxRetries)
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}
