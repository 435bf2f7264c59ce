// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/pkg/core"
)

var sessionStart = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func populate(t *testing.T, b *Backend) {
	t.Helper()
	require.NoError(t, b.RecordCreated(&core.MarkerCreated{
		Name:          "marker0",
		EntityID:      7,
		WorldPosition: core.WorldVector{X: 10, Y: 20, Z: 5},
		Time:          sessionStart,
	}))
	require.NoError(t, b.RecordPlacement(&core.MarkerPlacement{
		Name:     "marker0",
		Sequence: 1,
		Placement: core.Placement{
			Rotation: 90,
			Position: core.ScreenVector{X: 860, Y: 340},
			Icon:     core.ScreenVector{X: 900, Y: 355},
		},
	}))
	require.NoError(t, b.RecordPlacement(&core.MarkerPlacement{
		Name:     "marker0",
		Sequence: 2,
		Placement: core.Placement{
			Rotation:  -45,
			Position:  core.ScreenVector{X: 1500, Y: 80},
			Icon:      core.ScreenVector{X: 1540, Y: 95},
			OffScreen: true,
		},
	}))
	require.NoError(t, b.RecordRemoved(&core.MarkerRemoved{Name: "marker0", Time: sessionStart.Add(5 * time.Second), Updates: 2}))
	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker1", EntityID: 8, Time: sessionStart}))
}

func readExport(t *testing.T, path string, compressed bool) TraceExport {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var export TraceExport
	if compressed {
		gz, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer gz.Close()
		require.NoError(t, json.NewDecoder(gz).Decode(&export))
	} else {
		require.NoError(t, json.NewDecoder(f).Decode(&export))
	}
	return export
}

func TestBuildExport(t *testing.T) {
	b := New(config.MemoryConfig{}, SessionInfo{Version: "1.2.0", ScreenWidth: 2560, StartedAt: sessionStart})
	populate(t, b)

	export := b.buildExport()
	assert.Equal(t, ExportFormatVersion, export.FormatVersion)
	assert.Equal(t, "1.2.0", export.Version)
	assert.Equal(t, 2560.0, export.ScreenWidth)
	require.Len(t, export.Markers, 2)

	m := export.Markers[0]
	assert.Equal(t, "marker0", m.Name)
	assert.Equal(t, 7, m.EntityID)
	assert.Equal(t, []float64{10, 20, 5}, m.World)
	assert.Equal(t, uint(2), m.Updates)
	require.NotNil(t, m.RemovedAt)
	assert.Equal(t, sessionStart.Add(5*time.Second), *m.RemovedAt)
	require.Len(t, m.Placements, 2)
	assert.Equal(t, []any{uint(1), 90.0, []float64{860, 340}, []float64{900, 355}, false}, m.Placements[0])
	assert.Equal(t, true, m.Placements[1][4])

	// creation order is preserved, live markers have no removal time
	assert.Equal(t, "marker1", export.Markers[1].Name)
	assert.Nil(t, export.Markers[1].RemovedAt)
	assert.Empty(t, export.Markers[1].Placements)
}

func TestClose_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir}, SessionInfo{StartedAt: sessionStart})
	populate(t, b)

	require.NoError(t, b.Close())

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "markers_20240115_103000.json"), path)

	export := readExport(t, path, false)
	require.Len(t, export.Markers, 2)
	require.Len(t, export.Markers[0].Placements, 2)
	// JSON numbers decode as float64
	assert.Equal(t, float64(2), export.Markers[0].Placements[1][0])
}

func TestClose_WritesGzip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "traces")
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true}, SessionInfo{StartedAt: sessionStart})
	populate(t, b)

	require.NoError(t, b.Close())

	path := b.GetExportedFilePath()
	assert.Equal(t, ".gz", filepath.Ext(path))
	export := readExport(t, path, true)
	assert.Len(t, export.Markers, 2)
}

func TestClose_Idempotent(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir}, SessionInfo{StartedAt: sessionStart})
	require.NoError(t, b.Close())
	path := b.GetExportedFilePath()
	require.NoError(t, os.Remove(path))

	require.NoError(t, b.Close())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestClose_EmptyExport(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, SessionInfo{StartedAt: sessionStart})
	require.NoError(t, b.Close())

	export := readExport(t, b.GetExportedFilePath(), false)
	assert.NotNil(t, export.Markers)
	assert.Empty(t, export.Markers)
}
