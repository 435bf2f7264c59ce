// Package gormstorage implements storage.Backend on GORM with queued batch writes.
// Marker rows are inserted synchronously so placements can reference their ID;
// placements and removals are drained by a background writer.
package gormstorage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/overlaykit/markers/internal/cache"
	"github.com/overlaykit/markers/internal/database"
	"github.com/overlaykit/markers/internal/geo"
	"github.com/overlaykit/markers/internal/model"
	"github.com/overlaykit/markers/internal/panel"
	"github.com/overlaykit/markers/internal/queue"
	"github.com/overlaykit/markers/pkg/core"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	MarkerCache   *cache.MarkerCache
	Logger        *slog.Logger
	BatchInterval time.Duration
	Version       string
	ScreenWidth   float64
}

// removal is a pending update of a marker row at the end of its life.
type removal struct {
	markerID uint
	at       time.Time
	updates  uint
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	Placements *queue.Queue[model.Placement]
	Removals   *queue.Queue[removal]
}

func newQueues() *queues {
	return &queues{
		Placements: queue.New[model.Placement](),
		Removals:   queue.New[removal](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	stopChan  chan struct{}
	wg        sync.WaitGroup

	// last transforms per marker, written with the removal
	lastMu     sync.Mutex
	lastStyles map[uint]map[string]string
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.MarkerCache == nil {
		deps.MarkerCache = cache.NewMarkerCache()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchInterval <= 0 {
		deps.BatchInterval = time.Second
	}
	return &Backend{
		deps:       deps,
		lastStyles: make(map[uint]map[string]string),
	}
}

// Init migrates the schema, opens a session row and starts the writer.
// Without a DB the backend only queues, which tests use to inspect records.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.deps.DB != nil {
		if err := database.Migrate(b.deps.DB); err != nil {
			return fmt.Errorf("failed to setup DB: %w", err)
		}
		session := model.Session{
			StartedAt:   time.Now(),
			Version:     b.deps.Version,
			ScreenWidth: b.deps.ScreenWidth,
		}
		if err := b.deps.DB.Create(&session).Error; err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		b.sessionID.Store(uint64(session.ID))
	}

	b.wg.Add(1)
	go b.writeLoop()
	return nil
}

// Close stops the writer after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	b.wg.Wait()
	b.Flush()
	return nil
}

// SessionID returns the DB ID of the current session (0 without a DB).
func (b *Backend) SessionID() uint {
	return uint(b.sessionID.Load())
}

// RecordCreated inserts the marker row synchronously for immediate ID assignment.
func (b *Backend) RecordCreated(e *core.MarkerCreated) error {
	pos, err := geo.PointFromWorld(e.WorldPosition)
	if err != nil {
		return fmt.Errorf("marker %s position: %w", e.Name, err)
	}
	row := model.Marker{
		Time:          e.Time,
		SessionID:     b.SessionID(),
		Name:          e.Name,
		EntityID:      e.EntityID,
		WorldPosition: pos,
		Elevation:     e.WorldPosition.Z,
	}
	if b.deps.DB != nil {
		if err := b.deps.DB.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert marker: %w", err)
		}
	}
	b.deps.MarkerCache.Set(e.Name, row.ID)
	return nil
}

// RecordPlacement queues a placement for the writer.
func (b *Backend) RecordPlacement(p *core.MarkerPlacement) error {
	markerID, ok := b.deps.MarkerCache.Get(p.Name)
	if !ok {
		return nil
	}
	b.queues.Placements.Push(model.Placement{
		Time:      p.Time,
		MarkerID:  markerID,
		Sequence:  p.Sequence,
		Rotation:  p.Placement.Rotation,
		X:         p.Placement.Position.X,
		Y:         p.Placement.Position.Y,
		IconX:     p.Placement.Icon.X,
		IconY:     p.Placement.Icon.Y,
		OffScreen: p.Placement.OffScreen,
		Transform: p.Transform,
	})

	b.lastMu.Lock()
	b.lastStyles[markerID] = map[string]string{
		"body": p.Transform,
		"icon": panel.Translate(p.Placement.Icon.X, p.Placement.Icon.Y),
	}
	b.lastMu.Unlock()
	return nil
}

// RecordRemoved queues the end-of-life update and forgets the marker name.
func (b *Backend) RecordRemoved(e *core.MarkerRemoved) error {
	markerID, ok := b.deps.MarkerCache.Get(e.Name)
	if !ok {
		return nil
	}
	b.deps.MarkerCache.Delete(e.Name)
	b.queues.Removals.Push(removal{markerID: markerID, at: e.Time, updates: e.Updates})
	return nil
}

// Flush writes everything queued so far.
func (b *Backend) Flush() {
	if b.deps.DB == nil || b.queues == nil {
		return
	}
	writeQueue(b.deps.DB, b.queues.Placements, "placements", b.deps.Logger)

	for _, r := range b.queues.Removals.Drain(0) {
		b.lastMu.Lock()
		styles := b.lastStyles[r.markerID]
		delete(b.lastStyles, r.markerID)
		b.lastMu.Unlock()

		raw, err := json.Marshal(styles)
		if err != nil {
			raw = []byte("{}")
		}
		err = b.deps.DB.Model(&model.Marker{}).Where("id = ?", r.markerID).Updates(map[string]any{
			"removed_at":  sql.NullTime{Time: r.at, Valid: true},
			"updates":     r.updates,
			"last_styles": datatypes.JSON(raw),
		}).Error
		if err != nil {
			b.deps.Logger.Error("Error updating removed marker", "markerId", r.markerID, "error", err)
		}
	}
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches go back on the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.Drain(0)
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		log.Error("Error creating rows", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Requeue(items...)
		return
	}
	tx.Commit()
	log.Debug("Wrote rows", "table", name, "count", len(items))
}

func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.deps.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}
