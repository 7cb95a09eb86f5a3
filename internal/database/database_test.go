package database

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/studyshelf/internal/config"
	"github.com/mrlokans/studyshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := Open(config.Database{Driver: "sqlite", Path: dbPath}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestOpen_MigratesSchema(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, model := range Models() {
		assert.True(t, db.DB.Migrator().HasTable(model), "missing table for %T", model)
	}
	assert.NoError(t, db.Ping())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "oracle"}, logger.Default.LogMode(logger.Silent))
	assert.Error(t, err)
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, err := Open(config.Database{Driver: "postgres"}, logger.Default.LogMode(logger.Silent))
	assert.ErrorContains(t, err, "DATABASE_DSN")
}

func TestUniqueIndexes_TranslateToDuplicatedKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("group member", func(t *testing.T) {
		group := &entities.Group{Name: "g", MaxMembers: 4, IsActive: true}
		require.NoError(t, db.DB.Create(group).Error)

		require.NoError(t, db.DB.Create(&entities.GroupMember{GroupID: group.ID, UserID: 1}).Error)
		err := db.DB.Create(&entities.GroupMember{GroupID: group.ID, UserID: 1}).Error
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
	})

	t.Run("progress per user and book", func(t *testing.T) {
		require.NoError(t, db.DB.Create(&entities.ReadingProgress{UserID: 1, BookID: 1}).Error)
		err := db.DB.Create(&entities.ReadingProgress{UserID: 1, BookID: 1}).Error
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
	})
}
