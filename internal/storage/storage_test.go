// internal/storage/storage_test.go
package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/internal/storage"
	gormstorage "github.com/overlaykit/markers/internal/storage/gorm"
	influxstorage "github.com/overlaykit/markers/internal/storage/influx"
	"github.com/overlaykit/markers/internal/storage/memory"
	sqlitestorage "github.com/overlaykit/markers/internal/storage/sqlite"
	"github.com/overlaykit/markers/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend    = storage.Noop{}
	_ storage.Backend    = (*gormstorage.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Backend    = (*influxstorage.Backend)(nil)
	_ storage.Exportable = (*sqlitestorage.Backend)(nil)
	_ storage.Exportable = (*memory.Backend)(nil)
	_ storage.Exportable = (*influxstorage.Backend)(nil)
)

func TestNoop(t *testing.T) {
	var b storage.Backend = storage.Noop{}
	assert.NoError(t, b.Init())
	assert.NoError(t, b.RecordCreated(&core.MarkerCreated{}))
	assert.NoError(t, b.RecordPlacement(&core.MarkerPlacement{}))
	assert.NoError(t, b.RecordRemoved(&core.MarkerRemoved{}))
	assert.NoError(t, b.Close())
}

func TestNewBackend_Types(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		wantType any
	}{
		{"memory", storage.TypeMemory, &memory.Backend{}},
		{"sqlite", storage.TypeSQLite, &sqlitestorage.Backend{}},
		{"influx", storage.TypeInflux, &influxstorage.Backend{}},
		{"none", storage.TypeNone, storage.Noop{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{Type: tt.typ}, storage.Options{})
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, b)
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "mysql"}, storage.Options{})
	assert.EqualError(t, err, "unknown storage type: mysql")
}

func TestNewBackend_PostgresFallback(t *testing.T) {
	dir := t.TempDir()
	b, err := storage.NewBackend(config.StorageConfig{
		Type:          storage.TypePostgres,
		BatchInterval: time.Hour,
		Memory:        config.MemoryConfig{OutputDir: dir},
	}, storage.Options{
		DB: config.DBConfig{Host: "127.0.0.1", Port: "1", Username: "x", Password: "x", Database: "x"},
	})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0"}))
	require.NoError(t, b.Close())

	exp, ok := b.(storage.Exportable)
	require.True(t, ok)
	path := exp.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, storage.FallbackFileName), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewBackend_MemoryExport(t *testing.T) {
	dir := t.TempDir()
	b, err := storage.NewBackend(config.StorageConfig{
		Type:   storage.TypeMemory,
		Memory: config.MemoryConfig{OutputDir: dir},
	}, storage.Options{Version: "1.0.0", ScreenWidth: 1920})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())

	exp := b.(storage.Exportable)
	assert.Equal(t, dir, filepath.Dir(exp.GetExportedFilePath()))
}
