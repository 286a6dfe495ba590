package db

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techagentng/converse/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test a fresh in-memory database. A single connection
// keeps every statement on the same sqlite instance.
func openTestDB(t *testing.T) *GormDB {
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

	return &GormDB{DB: gdb}
}

func seedUser(t *testing.T, gdb *GormDB, username, email string) *models.User {
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
