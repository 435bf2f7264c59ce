package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/overlaykit/markers/internal/config"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableConfig(dir string) config.InfluxConfig {
	return config.InfluxConfig{
		Host:      "127.0.0.1",
		Port:      "1",
		Protocol:  "http",
		Org:       "markers",
		Bucket:    "marker_traces",
		BackupDir: dir,
	}
}

func readBackupLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var lines []string
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestNewManager(t *testing.T) {
	m := NewManager(zerolog.Nop(), unreachableConfig("/tmp/x"))

	assert.Equal(t, []string{"marker_traces"}, m.BucketNames)
	assert.Equal(t, filepath.Join("/tmp/x", BackupFileName), m.BackupPath)
	assert.Equal(t, "http://127.0.0.1:1", m.URL())
	assert.False(t, m.IsValid)
}

func TestConnect_FallsBackToBackup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backup")
	m := NewManager(zerolog.Nop(), unreachableConfig(dir))

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	point := influxdb2_write.NewPoint(
		"marker_placement",
		map[string]string{"marker": "marker0"},
		map[string]any{"rotation": 90.0},
		time.Unix(0, 42),
	)
	require.NoError(t, m.WritePoint("marker_traces", point))
	require.NoError(t, m.Close())

	lines := readBackupLines(t, m.BackupPath)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "marker_placement,marker=marker0 "))
	assert.Contains(t, lines[0], "rotation=90")
	assert.True(t, strings.HasSuffix(lines[0], " 42"))
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(zerolog.Nop(), unreachableConfig(t.TempDir()))

	err := m.WritePoint("marker_traces", influxdb2_write.NewPointWithMeasurement("x"))
	assert.Error(t, err)
}

func TestClose_WithoutConnect(t *testing.T) {
	m := NewManager(zerolog.Nop(), unreachableConfig(t.TempDir()))
	assert.NoError(t, m.Close())
}
