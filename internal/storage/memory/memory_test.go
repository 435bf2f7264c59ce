// internal/storage/memory/memory_test.go
package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/pkg/core"
)

func TestRecordLifecycle(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, SessionInfo{})
	require.NoError(t, b.Init())

	created := &core.MarkerCreated{Name: "marker0", EntityID: 3, WorldPosition: core.WorldVector{X: 1, Y: 2, Z: 3}}
	require.NoError(t, b.RecordCreated(created))
	for i := uint(1); i <= 3; i++ {
		require.NoError(t, b.RecordPlacement(&core.MarkerPlacement{Name: "marker0", Sequence: i}))
	}
	require.NoError(t, b.RecordRemoved(&core.MarkerRemoved{Name: "marker0", Updates: 3}))

	record, ok := b.GetMarker("marker0")
	require.True(t, ok)
	assert.Equal(t, 3, record.Created.EntityID)
	assert.Len(t, record.Placements, 3)
	assert.Equal(t, uint(3), record.Placements[2].Sequence)
	require.NotNil(t, record.Removed)
	assert.Equal(t, uint(3), record.Removed.Updates)
	assert.Equal(t, 1, b.MarkerCount())
}

func TestRecordPlacement_UnknownMarker(t *testing.T) {
	b := New(config.MemoryConfig{}, SessionInfo{})

	require.NoError(t, b.RecordPlacement(&core.MarkerPlacement{Name: "ghost"}))
	require.NoError(t, b.RecordRemoved(&core.MarkerRemoved{Name: "ghost"}))

	_, ok := b.GetMarker("ghost")
	assert.False(t, ok)
	assert.Equal(t, 0, b.MarkerCount())
}

func TestGetMarker_ReturnsCopy(t *testing.T) {
	b := New(config.MemoryConfig{}, SessionInfo{})
	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0"}))
	require.NoError(t, b.RecordPlacement(&core.MarkerPlacement{Name: "marker0", Sequence: 1}))

	record, _ := b.GetMarker("marker0")
	record.Placements[0].Sequence = 99

	again, _ := b.GetMarker("marker0")
	assert.Equal(t, uint(1), again.Placements[0].Sequence)
}

func TestNew_DefaultsStartTime(t *testing.T) {
	before := time.Now()
	b := New(config.MemoryConfig{}, SessionInfo{})
	assert.False(t, b.session.StartedAt.Before(before))
}
