// pkg/core/trace.go
package core

import "time"

// MarkerCreated is recorded once when a marker starts pointing at an entity.
type MarkerCreated struct {
	Name          string
	EntityID      int
	WorldPosition WorldVector
	Time          time.Time
}

// MarkerPlacement is recorded for every update that touched the marker panels.
type MarkerPlacement struct {
	Name      string
	EntityID  int
	Sequence  uint
	Time      time.Time
	Placement Placement
	Transform string // body transform as applied to the panel
}

// MarkerRemoved is recorded when a marker's panels are deleted.
type MarkerRemoved struct {
	Name     string
	EntityID int
	Time     time.Time
	Updates  uint
}
