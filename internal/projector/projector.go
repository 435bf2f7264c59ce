// Package projector points overlay markers at world positions.
//
// All placement math runs in the 1920-wide reference space. The host camera is
// only ever queried in real screen pixels: projected positions are scaled back
// into reference space, and the fixed screen center is scaled up before being
// unprojected.
package projector

import (
	"errors"
	"math"

	"github.com/overlaykit/markers/internal/geo"
	"github.com/overlaykit/markers/pkg/core"
)

// ErrNonFinite is returned when the camera produced (or was given) NaN or Inf values.
// Callers must leave panel state untouched when they see it.
var ErrNonFinite = errors.New("non-finite marker geometry")

// Camera is the host's projection service.
type Camera interface {
	WorldToScreen(p core.WorldVector) core.ScreenVector
	// ScreenToWorld unprojects a screen point onto the world, ignoring depth.
	ScreenToWorld(p core.ScreenVector) core.WorldVector
}

// Projector holds the fixed radar layout and the current screen scale.
type Projector struct {
	bounds core.Bounds
	center core.ScreenVector
	scale  float64
}

// New creates a projector for a container of the given laid-out width.
// Widths that are not positive finite numbers fall back to the reference width.
func New(screenWidth float64) *Projector {
	p := &Projector{
		bounds: core.DefaultBounds(),
		center: core.ScreenCenter,
	}
	p.SetScreenWidth(screenWidth)
	return p
}

// SetScreenWidth recomputes the screen scale.
func (p *Projector) SetScreenWidth(screenWidth float64) {
	if screenWidth <= 0 || math.IsNaN(screenWidth) || math.IsInf(screenWidth, 0) {
		p.scale = 1
		return
	}
	p.scale = screenWidth / core.ReferenceWidth
}

// Scale returns actualWidth / 1920.
func (p *Projector) Scale() float64 {
	return p.scale
}

// Bounds returns the viewport rectangle in reference space.
func (p *Projector) Bounds() core.Bounds {
	return p.bounds
}

// Center returns the screen center in reference space.
func (p *Projector) Center() core.ScreenVector {
	return p.center
}

// ScaledCenter returns the screen center in real screen pixels.
func (p *Projector) ScaledCenter() core.ScreenVector {
	return geo.Scale2(p.center, p.scale)
}

// IsOffScreen reports whether pos lies outside the viewport rectangle.
// Points on the boundary are on-screen.
func (p *Projector) IsOffScreen(pos core.ScreenVector) bool {
	off, size := p.bounds.Offset, p.bounds.Size
	return pos.X < off.X || pos.Y < off.Y ||
		pos.X > off.X+size.X ||
		pos.Y > off.Y+size.Y
}

// ToMarkerSpace maps a raw camera projection into reference space and shifts it
// by the marker graphic's render offset.
func (p *Projector) ToMarkerSpace(raw core.ScreenVector) core.ScreenVector {
	return geo.Add2(geo.Scale2(raw, 1/p.scale), core.RenderOffset)
}

// PointOnScreen points the marker straight at target.
func (p *Projector) PointOnScreen(target core.ScreenVector) core.Placement {
	return core.Placement{
		Rotation: core.OnScreenRotation,
		Position: target,
		Icon:     geo.Add2(target, core.IconOffset),
	}
}

// PointOffScreen places the marker on the radar boundary along the bearing from
// the camera's world look point to the entity.
func (p *Projector) PointOffScreen(target core.ScreenVector, entity, camera core.WorldVector) core.Placement {
	direction := geo.Direction2(camera, entity)

	// screen y grows downward, world y does not
	angle := -math.Atan2(direction.Y, direction.X) * (180 / math.Pi)

	length := p.RadialLength(target)
	relative := core.ScreenVector{X: direction.X * length, Y: -direction.Y * length}

	candidate := geo.Add2(p.center, relative)
	height := p.bounds.Size.Y / 2

	// Clamp to the top and bottom edges of the radar along the same bearing line.
	switch {
	case candidate.Y < p.bounds.Offset.Y:
		relative = core.ScreenVector{X: p.alongBearing(height, direction), Y: -height - core.UpperClampMargin}
	case candidate.Y > p.bounds.Offset.Y+p.bounds.Size.Y:
		relative = core.ScreenVector{X: p.alongBearing(-height, direction), Y: height}
	}

	pos := geo.Add2(p.center, relative)
	return core.Placement{
		Rotation:  angle,
		Position:  pos,
		Icon:      geo.Add2(pos, core.IconOffset),
		OffScreen: true,
	}
}

// RadialLength is the marker's distance from the center before edge clamping:
// the radar's horizontal radius, or the entity's own screen distance minus the
// inset when that is shorter.
func (p *Projector) RadialLength(target core.ScreenVector) float64 {
	return math.Min(
		p.bounds.Size.X/core.RadialDivisor,
		geo.Length2(geo.Sub2(target, p.center))-core.RadialInset,
	)
}

// alongBearing solves x = h * (dx/dy). A horizontal direction cannot reach the
// top or bottom edge, so x snaps to the half width on the direction's side.
func (p *Projector) alongBearing(h float64, direction core.ScreenVector) float64 {
	if direction.Y == 0 {
		return math.Copysign(p.bounds.Size.X/2, direction.X)
	}
	return h * (direction.X / direction.Y)
}

// Project runs one full marker update against the host camera.
func (p *Projector) Project(cam Camera, entity core.WorldVector) (core.Placement, error) {
	if !geo.Finite3(entity) {
		return core.Placement{}, ErrNonFinite
	}

	target := p.ToMarkerSpace(cam.WorldToScreen(entity))
	if !geo.Finite2(target) {
		return core.Placement{}, ErrNonFinite
	}

	var placement core.Placement
	if p.IsOffScreen(target) {
		camPos := cam.ScreenToWorld(p.ScaledCenter())
		if !geo.Finite3(camPos) {
			return core.Placement{}, ErrNonFinite
		}
		placement = p.PointOffScreen(target, entity, camPos)
	} else {
		placement = p.PointOnScreen(target)
	}

	if !finitePlacement(placement) {
		return core.Placement{}, ErrNonFinite
	}
	return placement, nil
}

func finitePlacement(pl core.Placement) bool {
	return !math.IsNaN(pl.Rotation) && !math.IsInf(pl.Rotation, 0) &&
		geo.Finite2(pl.Position) && geo.Finite2(pl.Icon)
}
