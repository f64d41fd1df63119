package postgres

import (
	"path/filepath"
	"testing"

	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a file-backed sqlite database in the test's temp dir.
// A file (not :memory:) so the connection pool shares one database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// busy timeout lets concurrent-writer tests serialize instead of
	// erroring with SQLITE_BUSY
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Job{},
		&models.User{},
		&models.CreditEntry{},
		&models.Video{},
		&models.Webhook{},
		&models.WebhookDelivery{},
	)
	require.NoError(t, err)

	return db
}
