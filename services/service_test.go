package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techagentng/converse/config"
	"github.com/techagentng/converse/db"
	"github.com/techagentng/converse/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		MaxUploadSize: 2 << 20,
		UploadsDir:    "uploads",
	}
}

// openTestStore gives each test a fresh in-memory database on a single
// connection.
func openTestStore(t *testing.T) *db.GormDB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Blacklist{},
		&models.Conversation{},
		&models.Message{},
		&models.ProfilePicture{},
	))

	return &db.GormDB{DB: gdb}
}

func seedAccount(t *testing.T, gdb *db.GormDB, username, email string) *models.User {
	t.Helper()

	user := &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: "not-a-real-hash",
		IsActive:       true,
	}
	require.NoError(t, gdb.DB.Create(user).Error)
	return user
}
