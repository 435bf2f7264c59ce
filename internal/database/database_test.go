package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/internal/model"
)

func TestGetSqliteDB_InMemoryMigrate(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}

	var count int64
	require.NoError(t, db.Model(&model.TraceInfo{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// migrating twice keeps a single info row
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Model(&model.TraceInfo{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	path := filepath.Join(t.TempDir(), "dumps", "markers.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	disk, err := GetSqliteDB(path)
	require.NoError(t, err)
	assert.True(t, disk.Migrator().HasTable(&model.Marker{}))
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	assert.Error(t, DumpMemoryDBToDisk(db, ""))
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.db"), 0755))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.db")}, paths)
}

func TestManager_ConnectFallsBackToSqlite(t *testing.T) {
	m := NewManager(zerolog.Nop())

	// nothing listens on port 1
	err := m.Connect(config.DBConfig{Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "d"})
	require.NoError(t, err)
	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())

	require.NoError(t, m.Setup())

	m.SqliteFilePath = filepath.Join(t.TempDir(), "fallback.db")
	require.NoError(t, m.DumpMemoryToDisk())
}
