// Package camera provides a headless orthographic camera for hosts without a renderer.
package camera

import (
	"sync"

	"github.com/overlaykit/markers/internal/geo"
	"github.com/overlaykit/markers/pkg/core"
)

// TopDown looks straight down at the ground plane. World x maps to screen
// right and world y to screen up; height is ignored.
type TopDown struct {
	mu       sync.RWMutex
	lookAt   core.WorldVector
	zoom     float64 // screen pixels per world unit
	viewport core.ScreenVector
}

// NewTopDown creates a camera centered on lookAt for a screen of the given size.
// A non-positive zoom falls back to one pixel per world unit.
func NewTopDown(lookAt core.WorldVector, zoom float64, viewport core.ScreenVector) *TopDown {
	if zoom <= 0 {
		zoom = 1
	}
	return &TopDown{lookAt: lookAt, zoom: zoom, viewport: viewport}
}

func (c *TopDown) center() core.ScreenVector {
	return geo.Scale2(c.viewport, 0.5)
}

func (c *TopDown) WorldToScreen(p core.WorldVector) core.ScreenVector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctr := c.center()
	return core.ScreenVector{
		X: ctr.X + (p.X-c.lookAt.X)*c.zoom,
		Y: ctr.Y - (p.Y-c.lookAt.Y)*c.zoom,
	}
}

// ScreenToWorld is the inverse of WorldToScreen on the ground plane (z = 0).
func (c *TopDown) ScreenToWorld(p core.ScreenVector) core.WorldVector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctr := c.center()
	return core.WorldVector{
		X: c.lookAt.X + (p.X-ctr.X)/c.zoom,
		Y: c.lookAt.Y - (p.Y-ctr.Y)/c.zoom,
	}
}

// LookAt recenters the camera.
func (c *TopDown) LookAt(p core.WorldVector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookAt = p
}

// Pan moves the look point by a world-space offset.
func (c *TopDown) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookAt.X += dx
	c.lookAt.Y += dy
}

func (c *TopDown) Position() core.WorldVector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookAt
}

// SetViewport updates the real screen size in pixels.
func (c *TopDown) SetViewport(size core.ScreenVector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = size
}
