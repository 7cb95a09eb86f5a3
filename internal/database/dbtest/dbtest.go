// Package dbtest opens throwaway file-backed SQLite databases for tests.
package dbtest

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/studyshelf/internal/config"
	"github.com/mrlokans/studyshelf/internal/database"
)

// New returns a migrated database that is closed and removed when t ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbPath := "./test_" + name + ".db"
	os.Remove(dbPath)

	db, err := database.Open(config.Database{Driver: "sqlite", Path: dbPath}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db.DB
}
