package repositories

import (
	"testing"

	"github.com/regami-app/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory SQLite database with the same error
// translation the production Postgres connection uses, so duplicate-key
// handling behaves identically.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: is its own database, so pin the pool to a
	// single connection; concurrent transactions serialize on it.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.AvailabilityOffer{},
		&models.AvailabilityRequest{},
		&models.Match{},
		&models.Notification{},
		&models.NotificationSequence{},
	))
	return db
}
