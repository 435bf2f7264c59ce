package marker

import (
	"sync"

	"github.com/overlaykit/markers/internal/panel"
	"github.com/overlaykit/markers/pkg/core"
)

// Marker is a body panel and an icon panel pointing at one captured world position.
type Marker struct {
	mgr      *Manager
	name     string
	entityID int
	world    core.WorldVector
	body     panel.Panel
	icon     panel.Panel

	mu       sync.Mutex
	exists   bool
	removing bool
	updates  uint
	last     core.Placement
}

func (m *Marker) Name() string                    { return m.name }
func (m *Marker) EntityID() int                   { return m.entityID }
func (m *Marker) WorldPosition() core.WorldVector { return m.world }

// Exists reports whether the marker still owns its panels.
func (m *Marker) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists
}

// LastPlacement returns the most recently applied placement.
func (m *Marker) LastPlacement() (core.Placement, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.updates > 0
}

// Updates returns how many placements were applied.
func (m *Marker) Updates() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// Update points the marker at its entity from the current camera view.
// It does nothing once the marker is gone. If the camera produces unusable
// geometry the panels keep their previous transform.
func (m *Marker) Update() {
	if !m.Exists() {
		return
	}

	mgr := m.mgr
	placement, err := mgr.deps.Projector.Project(mgr.deps.Camera, m.world)
	if err != nil {
		mgr.deps.Logger.Debug("Skipping marker update", "marker", m.name, "error", err)
		return
	}

	transform := panel.RotateTranslate(placement.Rotation, placement.Position.X, placement.Position.Y)
	m.body.SetStyle(panel.StyleTransform, transform)
	m.icon.SetStyle(panel.StyleTransform, panel.Translate(placement.Icon.X, placement.Icon.Y))

	m.mu.Lock()
	m.updates++
	m.last = placement
	seq := m.updates
	m.mu.Unlock()

	if err := mgr.deps.Backend.RecordPlacement(&core.MarkerPlacement{
		Name:      m.name,
		EntityID:  m.entityID,
		Sequence:  seq,
		Time:      mgr.deps.Now(),
		Placement: placement,
		Transform: transform,
	}); err != nil {
		mgr.deps.Logger.Warn("Failed to record marker placement", "marker", m.name, "error", err)
	}
}

// Remove fades the marker out and deletes its panels after the fade.
// Calling it again has no effect.
func (m *Marker) Remove() {
	m.mu.Lock()
	if m.removing || !m.exists {
		m.mu.Unlock()
		return
	}
	m.removing = true
	m.mu.Unlock()

	m.body.AddClass(panel.ClassFadeOut)
	m.icon.AddClass(panel.ClassFadeOut)

	// hide right away so nothing flashes once the fade class finishes
	m.body.SetStyle(panel.StyleOpacity, "0")
	m.icon.SetStyle(panel.StyleOpacity, "0")

	m.mgr.deps.Scheduler.ScheduleOnce(m.mgr.opts.FadeOut, m.destroy)
}

func (m *Marker) destroy() {
	mgr := m.mgr
	mgr.registry.Remove(m)

	m.mu.Lock()
	m.exists = false
	updates := m.updates
	m.mu.Unlock()

	m.body.Delete()
	m.icon.Delete()

	if err := mgr.deps.Backend.RecordRemoved(&core.MarkerRemoved{
		Name:     m.name,
		EntityID: m.entityID,
		Time:     mgr.deps.Now(),
		Updates:  updates,
	}); err != nil {
		mgr.deps.Logger.Warn("Failed to record marker removal", "marker", m.name, "error", err)
	}
	mgr.deps.Logger.Debug("Marker removed", "marker", m.name, "updates", updates)
}
