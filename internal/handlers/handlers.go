// Package handlers turns host commands into marker, entity and camera operations.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/overlaykit/markers/internal/cache"
	"github.com/overlaykit/markers/internal/dispatcher"
	"github.com/overlaykit/markers/internal/geo"
	"github.com/overlaykit/markers/internal/marker"
	"github.com/overlaykit/markers/internal/util"
	"github.com/overlaykit/markers/pkg/core"
)

// Host commands.
const (
	CmdMarkerAdd   = ":MARKER:ADD:"
	CmdMarkerCount = ":MARKER:COUNT:"
	CmdScreenWidth = ":SCREEN:WIDTH:"
	CmdEntitySet   = ":ENTITY:SET:"
	CmdEntityDel   = ":ENTITY:DEL:"
	CmdCameraLook  = ":CAMERA:LOOK:"
	CmdVersion     = ":VERSION:"
)

// ErrMissingArgs is returned when a command has fewer arguments than it needs.
var ErrMissingArgs = errors.New("missing arguments")

// CameraControl is the part of the camera the host steers.
type CameraControl interface {
	LookAt(p core.WorldVector)
	Position() core.WorldVector
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Manager  *marker.Manager
	Entities *cache.EntityCache
	Camera   CameraControl     // optional, :CAMERA:LOOK: is not registered without it
	Loop     dispatcher.Poster // optional, marker commands run inline without it
	Logger   *slog.Logger
	Version  string
}

// Service provides the handler methods
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// Register wires every handler into d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	var loop []dispatcher.Option
	if s.deps.Loop != nil {
		loop = append(loop, dispatcher.OnLoop(s.deps.Loop))
	}

	d.Register(CmdMarkerAdd, s.HandleMarkerAdd, append(loop, dispatcher.Logged())...)
	d.Register(CmdScreenWidth, s.HandleScreenWidth, append(loop, dispatcher.Logged())...)
	d.Register(CmdMarkerCount, s.HandleMarkerCount)
	d.Register(CmdEntitySet, s.HandleEntitySet)
	d.Register(CmdEntityDel, s.HandleEntityDel)
	d.Register(CmdVersion, s.HandleVersion)
	if s.deps.Camera != nil {
		d.Register(CmdCameraLook, s.HandleCameraLook, dispatcher.Logged())
	}
}

func args(e dispatcher.Event, n int) ([]string, error) {
	if len(e.Args) < n {
		return nil, fmt.Errorf("%s: %w: want %d, got %d", e.Command, ErrMissingArgs, n, len(e.Args))
	}
	return util.CleanArgs(e.Args), nil
}

func parseEntityID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q: %w", s, err)
	}
	return id, nil
}

// HandleMarkerAdd spawns a marker for args[0] (entity id) and returns its name.
func (s *Service) HandleMarkerAdd(e dispatcher.Event) (any, error) {
	a, err := args(e, 1)
	if err != nil {
		return nil, err
	}
	id, err := parseEntityID(a[0])
	if err != nil {
		return nil, err
	}

	m, err := s.deps.Manager.AddNew(id)
	if err != nil {
		return nil, err
	}
	s.deps.Logger.Debug("Marker added", "marker", m.Name(), "entity", id)
	return m.Name(), nil
}

// HandleMarkerCount returns the number of live markers.
func (s *Service) HandleMarkerCount(dispatcher.Event) (any, error) {
	return s.deps.Manager.Count(), nil
}

// HandleScreenWidth calibrates the projector with args[0] (laid-out container width).
func (s *Service) HandleScreenWidth(e dispatcher.Event) (any, error) {
	a, err := args(e, 1)
	if err != nil {
		return nil, err
	}
	width, err := strconv.ParseFloat(a[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid screen width %q: %w", a[0], err)
	}

	s.deps.Manager.Calibrate(width)
	return s.deps.Manager.Projector().Scale(), nil
}

// HandleEntitySet stores args[1] ("x,y,z") as the world origin of entity args[0].
func (s *Service) HandleEntitySet(e dispatcher.Event) (any, error) {
	a, err := args(e, 2)
	if err != nil {
		return nil, err
	}
	id, err := parseEntityID(a[0])
	if err != nil {
		return nil, err
	}
	pos, err := geo.WorldVectorFromString(a[1])
	if err != nil {
		return nil, err
	}

	s.deps.Entities.Set(id, pos)
	return nil, nil
}

// HandleEntityDel forgets entity args[0]. Live markers keep their sampled position.
func (s *Service) HandleEntityDel(e dispatcher.Event) (any, error) {
	a, err := args(e, 1)
	if err != nil {
		return nil, err
	}
	id, err := parseEntityID(a[0])
	if err != nil {
		return nil, err
	}

	s.deps.Entities.Delete(id)
	return nil, nil
}

// HandleCameraLook moves the camera's look point to args[0] ("x,y[,z]").
func (s *Service) HandleCameraLook(e dispatcher.Event) (any, error) {
	a, err := args(e, 1)
	if err != nil {
		return nil, err
	}
	pos, err := geo.WorldVectorFromString(a[0])
	if err != nil {
		return nil, err
	}

	s.deps.Camera.LookAt(pos)
	return nil, nil
}

// HandleVersion returns the build version.
func (s *Service) HandleVersion(dispatcher.Event) (any, error) {
	return s.deps.Version, nil
}
