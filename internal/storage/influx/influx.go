// Package influxstorage writes marker traces as InfluxDB points.
package influxstorage

import (
	"context"
	"fmt"

	"github.com/overlaykit/markers/internal/influx"
	"github.com/overlaykit/markers/pkg/core"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementCreated   = "marker_created"
	MeasurementPlacement = "marker_placement"
	MeasurementRemoved   = "marker_removed"
)

// Backend implements storage.Backend on top of an influx.Manager.
type Backend struct {
	manager *influx.Manager
	bucket  string
}

// New creates a backend writing into the manager's first bucket.
func New(manager *influx.Manager) *Backend {
	b := &Backend{manager: manager}
	if len(manager.BucketNames) > 0 {
		b.bucket = manager.BucketNames[0]
	}
	return b
}

// Init connects the manager.
func (b *Backend) Init() error {
	if b.bucket == "" {
		return fmt.Errorf("influx bucket not configured")
	}
	return b.manager.Connect(context.Background())
}

// Close flushes and disconnects.
func (b *Backend) Close() error {
	return b.manager.Close()
}

// GetExportedFilePath returns the backup file path when writing offline.
func (b *Backend) GetExportedFilePath() string {
	if b.manager.BackupWriter == nil {
		return ""
	}
	return b.manager.BackupPath
}

func (b *Backend) RecordCreated(e *core.MarkerCreated) error {
	return b.manager.WritePoint(b.bucket, CreatedPoint(e))
}

func (b *Backend) RecordPlacement(p *core.MarkerPlacement) error {
	return b.manager.WritePoint(b.bucket, PlacementPoint(p))
}

func (b *Backend) RecordRemoved(e *core.MarkerRemoved) error {
	return b.manager.WritePoint(b.bucket, RemovedPoint(e))
}

func tags(name string, entityID int) map[string]string {
	return map[string]string{
		"marker": name,
		"entity": fmt.Sprintf("%d", entityID),
	}
}

// CreatedPoint converts a creation record.
func CreatedPoint(e *core.MarkerCreated) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(MeasurementCreated, tags(e.Name, e.EntityID), map[string]any{
		"x": e.WorldPosition.X,
		"y": e.WorldPosition.Y,
		"z": e.WorldPosition.Z,
	}, e.Time)
}

// PlacementPoint converts one update.
func PlacementPoint(p *core.MarkerPlacement) *influxdb2_write.Point {
	pl := p.Placement
	return influxdb2_write.NewPoint(MeasurementPlacement, tags(p.Name, p.EntityID), map[string]any{
		"sequence":   p.Sequence,
		"rotation":   pl.Rotation,
		"x":          pl.Position.X,
		"y":          pl.Position.Y,
		"icon_x":     pl.Icon.X,
		"icon_y":     pl.Icon.Y,
		"off_screen": pl.OffScreen,
	}, p.Time)
}

// RemovedPoint converts a removal record.
func RemovedPoint(e *core.MarkerRemoved) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(MeasurementRemoved, tags(e.Name, e.EntityID), map[string]any{
		"updates": e.Updates,
	}, e.Time)
}
