package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlaykit/markers/internal/database"
	"github.com/overlaykit/markers/internal/model"
	"github.com/overlaykit/markers/pkg/core"
)

func TestBackend_DumpOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.db")
	b, err := New(Config{DumpPath: path, BatchInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0", EntityID: 2}))
	require.NoError(t, b.RecordPlacement(&core.MarkerPlacement{Name: "marker0", Sequence: 1}))
	require.NoError(t, b.Close())

	assert.Equal(t, path, b.GetExportedFilePath())
	_, err = os.Stat(path)
	require.NoError(t, err)

	disk, err := database.GetSqliteDB(path)
	require.NoError(t, err)
	var count int64
	require.NoError(t, disk.Model(&model.Placement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBackend_PeriodicDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 10 * time.Millisecond, BatchInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBackend_NoDumpPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0"}))
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, b.DB().Model(&model.Marker{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBackend_CloseTwice(t *testing.T) {
	b, err := New(Config{DumpPath: filepath.Join(t.TempDir(), "markers.db")}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

func TestBackend_CloseWithoutInit(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}
