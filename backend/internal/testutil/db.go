// Package testutil provides an in-memory store for package tests.
package testutil

import (
	"strings"
	"testing"
	"time"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the schema
// migrated. A single connection keeps every query on the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskAssignee{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// CreateUser inserts a user with the given role and a unique email.
func CreateUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()

	user := &models.User{
		ID:              uuid.Must(uuid.NewV4()),
		Name:            name,
		Email:           strings.ToLower(name) + "-" + uuid.Must(uuid.NewV4()).String()[:8] + "@example.com",
		Password:        "hashed",
		ProfileImageURL: models.DefaultProfileImageURL,
		Role:            role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}
