// internal/storage/memory/memory.go
package memory

import (
	"sync"
	"time"

	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/pkg/core"
)

// MarkerRecord groups a marker with every placement it went through
type MarkerRecord struct {
	Created    core.MarkerCreated
	Placements []core.MarkerPlacement
	Removed    *core.MarkerRemoved
}

// SessionInfo describes the run the trace belongs to
type SessionInfo struct {
	Version     string
	ScreenWidth float64
	StartedAt   time.Time
}

// Backend keeps marker traces in memory and exports them to JSON on Close
type Backend struct {
	cfg     config.MemoryConfig
	session SessionInfo

	markers map[string]*MarkerRecord // keyed by marker name
	order   []string

	closed         bool
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig, session SessionInfo) *Backend {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	return &Backend{
		cfg:     cfg,
		session: session,
		markers: make(map[string]*MarkerRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports the collected traces. Calling it again is a no-op.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.exportJSON()
}

// RecordCreated starts a new marker record
func (b *Backend) RecordCreated(e *core.MarkerCreated) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.markers[e.Name]; !ok {
		b.order = append(b.order, e.Name)
	}
	b.markers[e.Name] = &MarkerRecord{
		Created:    *e,
		Placements: make([]core.MarkerPlacement, 0),
	}
	return nil
}

// RecordPlacement appends a placement to its marker. Placements for unknown markers are dropped.
func (b *Backend) RecordPlacement(p *core.MarkerPlacement) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if record, ok := b.markers[p.Name]; ok {
		record.Placements = append(record.Placements, *p)
	}
	return nil
}

// RecordRemoved closes a marker record
func (b *Backend) RecordRemoved(e *core.MarkerRemoved) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if record, ok := b.markers[e.Name]; ok {
		removed := *e
		record.Removed = &removed
	}
	return nil
}

// GetMarker returns a copy of the record for name.
func (b *Backend) GetMarker(name string) (MarkerRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.markers[name]
	if !ok {
		return MarkerRecord{}, false
	}
	out := *record
	out.Placements = append([]core.MarkerPlacement(nil), record.Placements...)
	return out, true
}

// MarkerCount returns the number of markers recorded so far
func (b *Backend) MarkerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.markers)
}

// GetExportedFilePath returns the path of the last exported file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
