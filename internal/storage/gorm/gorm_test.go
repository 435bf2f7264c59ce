package gormstorage

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlaykit/markers/internal/database"
	"github.com/overlaykit/markers/internal/geo"
	"github.com/overlaykit/markers/internal/model"
	"github.com/overlaykit/markers/pkg/core"
)

// Compile-time interface check

// newTestBackend creates a Backend with no DB (queue-only mode for unit testing).
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(Dependencies{BatchInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newSqliteBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, BatchInterval: time.Hour, Version: "test", ScreenWidth: 1920})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func placement(name string, seq uint) *core.MarkerPlacement {
	return &core.MarkerPlacement{
		Name:     name,
		Sequence: seq,
		Time:     time.Now(),
		Placement: core.Placement{
			Rotation: 90,
			Position: core.ScreenVector{X: 800, Y: 200},
			Icon:     core.ScreenVector{X: 840, Y: 215},
		},
		Transform: "rotateZ(90deg) translate3d(800px, 200px, 0px)",
	}
}

func TestInitClose(t *testing.T) {
	b := New(Dependencies{})
	require.NoError(t, b.Init())
	require.NotNil(t, b.queues)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "close is idempotent")
}

func TestRecordPlacement_QueuesToInternalQueue(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0", EntityID: 1}))
	require.NoError(t, b.RecordPlacement(placement("marker0", 1)))
	require.NoError(t, b.RecordPlacement(placement("marker0", 2)))

	assert.Equal(t, 2, b.queues.Placements.Len())
}

func TestRecordCreated_RejectsNonFinitePosition(t *testing.T) {
	b := newTestBackend(t)

	err := b.RecordCreated(&core.MarkerCreated{
		Name:          "marker0",
		WorldPosition: core.WorldVector{X: math.NaN()},
	})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
	assert.Equal(t, 0, b.deps.MarkerCache.Len())
}

func TestRecordPlacement_UnknownMarkerIgnored(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.RecordPlacement(placement("ghost", 1)))
	assert.Equal(t, 0, b.queues.Placements.Len())
}

func TestRecordRemoved_ForgetsName(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0"}))
	require.NoError(t, b.RecordRemoved(&core.MarkerRemoved{Name: "marker0", Updates: 3}))

	assert.Equal(t, 1, b.queues.Removals.Len())
	assert.Equal(t, 0, b.deps.MarkerCache.Len())

	require.NoError(t, b.RecordRemoved(&core.MarkerRemoved{Name: "marker0"}))
	assert.Equal(t, 1, b.queues.Removals.Len())
}

func TestSqlite_FullLifecycle(t *testing.T) {
	b := newSqliteBackend(t)
	db := b.deps.DB
	assert.NotZero(t, b.SessionID())

	world := core.WorldVector{X: 120.5, Y: -40, Z: 7}
	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0", EntityID: 9, WorldPosition: world, Time: time.Now()}))
	for i := uint(1); i <= 3; i++ {
		require.NoError(t, b.RecordPlacement(placement("marker0", i)))
	}
	require.NoError(t, b.RecordRemoved(&core.MarkerRemoved{Name: "marker0", EntityID: 9, Updates: 3, Time: time.Now()}))

	b.Flush()
	assert.True(t, b.queues.Placements.Empty())

	var markers []model.Marker
	require.NoError(t, db.Find(&markers).Error)
	require.Len(t, markers, 1)
	m := markers[0]
	assert.Equal(t, "marker0", m.Name)
	assert.Equal(t, 9, m.EntityID)
	assert.Equal(t, b.SessionID(), m.SessionID)
	assert.Equal(t, uint(3), m.Updates)
	assert.True(t, m.RemovedAt.Valid)
	assert.Equal(t, 7.0, m.Elevation)

	got := geo.WorldFromPoint(m.WorldPosition)
	assert.Equal(t, world, got)

	var styles map[string]string
	require.NoError(t, json.Unmarshal(m.LastStyles, &styles))
	assert.Equal(t, "rotateZ(90deg) translate3d(800px, 200px, 0px)", styles["body"])
	assert.Equal(t, "translate3d(840px, 215px, 0px)", styles["icon"])

	var placements []model.Placement
	require.NoError(t, db.Order("sequence").Find(&placements).Error)
	require.Len(t, placements, 3)
	assert.Equal(t, m.ID, placements[0].MarkerID)
	assert.Equal(t, uint(3), placements[2].Sequence)
	assert.Equal(t, 840.0, placements[0].IconX)
}

func TestSqlite_CloseFlushes(t *testing.T) {
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, BatchInterval: time.Hour})
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0"}))
	require.NoError(t, b.RecordPlacement(placement("marker0", 1)))
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, db.Model(&model.Placement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSqlite_WriterFlushesOnInterval(t *testing.T) {
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, BatchInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.RecordCreated(&core.MarkerCreated{Name: "marker0"}))
	require.NoError(t, b.RecordPlacement(placement("marker0", 1)))

	assert.Eventually(t, func() bool { return b.queues.Placements.Empty() }, time.Second, 5*time.Millisecond)
}
