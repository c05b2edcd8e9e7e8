package repositories

import (
	"fmt"
	"testing"

	"github.com/encoreline/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns an isolated in-memory database with the relation
// schema migrated. Single connection so every query sees the same memory DB.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Block{},
		&models.Notification{},
	))

	return db
}

// seedUsers creates n users and returns their ids in creation order.
func seedUsers(t *testing.T, db *gorm.DB, n int) []uint {
	t.Helper()

	ids := make([]uint, 0, n)
	for i := 1; i <= n; i++ {
		user := &models.User{
			Username:    fmt.Sprintf("fan%d", i),
			DisplayName: fmt.Sprintf("Fan %d", i),
			Email:       fmt.Sprintf("fan%d@example.com", i),
			FirebaseUID: fmt.Sprintf("uid-fan%d", i),
		}
		require.NoError(t, db.Create(user).Error)
		ids = append(ids, user.ID)
	}
	return ids
}
