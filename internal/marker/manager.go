// Package marker draws short-lived overlay markers that point at world entities.
package marker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/overlaykit/markers/internal/cache"
	"github.com/overlaykit/markers/internal/panel"
	"github.com/overlaykit/markers/internal/projector"
	"github.com/overlaykit/markers/internal/scheduler"
	"github.com/overlaykit/markers/internal/storage"
	"github.com/overlaykit/markers/pkg/core"
)

// ErrUnknownEntity is returned when the host has no world origin for an entity.
var ErrUnknownEntity = errors.New("unknown entity")

// EntityLookup resolves an entity's absolute world origin.
type EntityLookup interface {
	AbsOrigin(id int) (core.WorldVector, bool)
}

// Options controls marker lifetime and appearance.
type Options struct {
	Duration       time.Duration
	UpdateInterval time.Duration
	FadeOut        time.Duration
	Parent         string
	BodyImage      string
	IconImage      string
}

func DefaultOptions() Options {
	return Options{
		Duration:       5 * time.Second,
		UpdateInterval: 50 * time.Millisecond,
		FadeOut:        time.Second,
		Parent:         "markerContainer",
		BodyImage:      "custom_game/marker.tga",
		IconImage:      "custom_game/marker_icon.tga",
	}
}

// Dependencies holds the collaborators a Manager needs.
// Backend, Logger and Now are optional.
type Dependencies struct {
	Projector *projector.Projector
	Camera    projector.Camera
	Entities  EntityLookup
	Panels    panel.Factory
	Scheduler scheduler.Scheduler
	Backend   storage.Backend
	Logger    *slog.Logger
	Now       func() time.Time
}

// Manager creates markers and owns the registry of live ones.
// All marker callbacks run through the scheduler; with a scheduler.Loop they are
// serialized on the loop goroutine.
type Manager struct {
	deps     Dependencies
	opts     Options
	registry *Registry
	index    cache.SafeCounter
}

func NewManager(deps Dependencies, opts Options) *Manager {
	if deps.Backend == nil {
		deps.Backend = storage.Noop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Projector == nil {
		deps.Projector = projector.New(core.ReferenceWidth)
	}
	if opts.FadeOut > opts.Duration {
		opts.FadeOut = opts.Duration
	}
	return &Manager{
		deps:     deps,
		opts:     opts,
		registry: NewRegistry(),
	}
}

// Registry exposes the live marker set.
func (mgr *Manager) Registry() *Registry {
	return mgr.registry
}

// Count returns the number of live markers.
func (mgr *Manager) Count() int {
	return mgr.registry.Len()
}

// Projector returns the shared projector.
func (mgr *Manager) Projector() *projector.Projector {
	return mgr.deps.Projector
}

// Calibrate recomputes the screen scale from the marker container's laid-out width.
func (mgr *Manager) Calibrate(actualWidth float64) {
	mgr.deps.Projector.SetScreenWidth(actualWidth)
	mgr.deps.Logger.Debug("Marker screen calibrated", "width", actualWidth, "scale", mgr.deps.Projector.Scale())
}

// CalibrateAfter measures the container width once delay has passed, giving
// the host time to lay it out.
func (mgr *Manager) CalibrateAfter(delay time.Duration, measure func() float64) {
	mgr.deps.Scheduler.ScheduleOnce(delay, func() {
		mgr.Calibrate(measure())
	})
}

// AddNew creates a marker pointing at the entity's current world origin.
// The position is sampled once; the marker keeps pointing there until it expires.
func (mgr *Manager) AddNew(entityID int) (*Marker, error) {
	pos, ok := mgr.deps.Entities.AbsOrigin(entityID)
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", entityID, ErrUnknownEntity)
	}

	name := fmt.Sprintf("marker%d", mgr.index.Value())

	body, err := mgr.deps.Panels.CreatePanel(mgr.opts.Parent, name)
	if err != nil {
		return nil, fmt.Errorf("creating marker panel: %w", err)
	}
	icon, err := mgr.deps.Panels.CreatePanel(mgr.opts.Parent, name+"_icon")
	if err != nil {
		body.Delete()
		return nil, fmt.Errorf("creating marker icon panel: %w", err)
	}
	mgr.index.Inc()

	m := &Marker{
		mgr:      mgr,
		name:     name,
		entityID: entityID,
		world:    pos,
		body:     body,
		icon:     icon,
		exists:   true,
	}

	body.SetStyle(panel.StyleWidth, panel.Pixels(150))
	body.SetStyle(panel.StyleHeight, panel.Pixels(100))
	body.SetStyle(panel.StyleBackgroundImage, panel.ImageURL(mgr.opts.BodyImage))

	icon.SetStyle(panel.StyleWidth, panel.Pixels(70))
	icon.SetStyle(panel.StyleHeight, panel.Pixels(70))
	icon.SetStyle(panel.StyleBackgroundImage, panel.ImageURL(mgr.opts.IconImage))
	icon.SetStyle(panel.StyleBorderRadius, "50%")

	if err := mgr.deps.Backend.RecordCreated(&core.MarkerCreated{
		Name:          name,
		EntityID:      entityID,
		WorldPosition: pos,
		Time:          mgr.deps.Now(),
	}); err != nil {
		mgr.deps.Logger.Warn("Failed to record marker creation", "marker", name, "error", err)
	}

	mgr.deps.Scheduler.ScheduleOnce(mgr.opts.Duration-mgr.opts.FadeOut, m.Remove)

	// first update runs now, the rest every interval until the marker is gone
	scheduler.Every(mgr.deps.Scheduler, mgr.opts.UpdateInterval, m.Exists, m.Update)

	transition := panel.Transition(panel.StyleTransform, mgr.opts.UpdateInterval)
	body.SetStyle(panel.StyleTransition, transition)
	icon.SetStyle(panel.StyleTransition, transition)

	mgr.registry.Add(m)

	mgr.deps.Logger.Debug("Marker added", "marker", name, "entity", entityID, "x", pos.X, "y", pos.Y, "z", pos.Z)
	return m, nil
}
