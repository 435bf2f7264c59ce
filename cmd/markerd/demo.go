package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/internal/geo"
	"github.com/overlaykit/markers/internal/handlers"
	"github.com/overlaykit/markers/internal/storage"
	"github.com/overlaykit/markers/pkg/core"
)

// defaultDemoEntities surround the camera: one on screen, the rest off each edge.
var defaultDemoEntities = []core.WorldVector{
	{X: 100, Y: 50},
	{X: 2400, Y: 200},
	{X: -300, Y: 1500},
	{X: -2000, Y: -900, Z: 30},
}

// printingBackend echoes every placement to w before recording it.
type printingBackend struct {
	storage.Backend
	mu    sync.Mutex
	w     io.Writer
	clock func() time.Duration
}

func (b *printingBackend) RecordPlacement(p *core.MarkerPlacement) error {
	b.mu.Lock()
	side := "on "
	if p.Placement.OffScreen {
		side = "off"
	}
	fmt.Fprintf(b.w, "%6dms %-8s #%-3d %s rot=%8.2f pos=(%8.2f, %8.2f) icon=(%8.2f, %8.2f)\n",
		b.clock().Milliseconds(), p.Name, p.Sequence, side,
		p.Placement.Rotation,
		p.Placement.Position.X, p.Placement.Position.Y,
		p.Placement.Icon.X, p.Placement.Icon.Y)
	b.mu.Unlock()
	return b.Backend.RecordPlacement(p)
}

func (b *printingBackend) RecordRemoved(e *core.MarkerRemoved) error {
	b.mu.Lock()
	fmt.Fprintf(b.w, "%6dms %-8s removed after %d updates\n", b.clock().Milliseconds(), e.Name, e.Updates)
	b.mu.Unlock()
	return b.Backend.RecordRemoved(e)
}

func (b *printingBackend) GetExportedFilePath() string {
	if exp, ok := b.Backend.(storage.Exportable); ok {
		return exp.GetExportedFilePath()
	}
	return ""
}

// runDemo spawns one marker per entity and drives the clock by hand through a
// full marker lifetime, panning the camera halfway through.
func runDemo(w io.Writer, entitiesJSON string) error {
	entities := defaultDemoEntities
	if entitiesJSON != "" {
		parsed, err := geo.ParseWorldPoints(entitiesJSON)
		if err != nil {
			return err
		}
		entities = parsed
	}

	printer := &printingBackend{w: w}
	a, err := newApp(appOptions{
		WrapBackend: func(b storage.Backend) storage.Backend {
			printer.Backend = b
			return printer
		},
	})
	if err != nil {
		return err
	}
	printer.clock = a.loop.Clock().Now

	call := func(parts ...string) {
		fmt.Fprintf(w, "> %s\n  %s\n", strings.Join(parts, "|"), a.host.Call(strings.Join(parts, "|")))
	}

	call(handlers.CmdVersion)
	call(handlers.CmdScreenWidth, fmt.Sprintf("%g", config.GetCameraConfig().Width))
	for i, e := range entities {
		call(handlers.CmdEntitySet, fmt.Sprint(i), fmt.Sprintf("%g,%g,%g", e.X, e.Y, e.Z))
	}
	for i := range entities {
		call(handlers.CmdMarkerAdd, fmt.Sprint(i))
	}

	mc := config.GetMarkerConfig()
	step := mc.UpdateInterval
	if step <= 0 {
		step = 50 * time.Millisecond
	}
	clock := a.loop.Clock()
	panned := false
	for clock.Now() <= mc.Duration {
		clock.Advance(step)
		if !panned && clock.Now() >= mc.Duration/2 {
			panned = true
			call(handlers.CmdCameraLook, "400,-200")
		}
	}

	call(handlers.CmdMarkerCount)
	return a.close()
}
