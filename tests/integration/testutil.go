package integration

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/slotwise/slotwise/internal/db"
	"github.com/slotwise/slotwise/internal/models"
)

// setupTestDB opens a throwaway sqlite database and migrates the full
// schema. Each test gets its own file under t.TempDir so tests stay
// isolated and parallelizable.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "slotwise.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = gormDB.AutoMigrate(
		&models.ActionCard{},
		&models.AgentConfig{},
		&models.AgentRun{},
		&models.AgentFeedback{},
		&models.DuplicateCandidate{},
		&models.Tenant{},
		&models.Customer{},
		&models.Booking{},
		&models.Staff{},
		&models.WorkingHours{},
		&models.TimeOff{},
		&models.WaitlistEntry{},
		&models.Quote{},
		&models.Conversation{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	database := &db.DB{DB: gormDB}
	t.Cleanup(func() { database.Close() })
	return database
}

func stringPtr(s string) *string {
	return &s
}
