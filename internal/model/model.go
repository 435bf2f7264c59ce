package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&TraceInfo{},
	&Session{},
	&Marker{},
	&Placement{},
}

// TraceInfo describes the instance writing traces
type TraceInfo struct {
	gorm.Model
	Host        string `json:"host" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
}

func (*TraceInfo) TableName() string {
	return "trace_infos"
}

// Session is one run of the marker daemon
type Session struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	StartedAt   time.Time `json:"startedAt" gorm:"index:idx_session_started_at"`
	Version     string    `json:"version" gorm:"size:64"`
	ScreenWidth float64   `json:"screenWidth"` // laid-out container width when the session started
}

func (*Session) TableName() string {
	return "sessions"
}

// Marker is a single marker lifetime, from creation to panel deletion
type Marker struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"` // when the marker was created
	SessionID uint      `json:"sessionId" gorm:"index:idx_marker_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`

	Name          string         `json:"name" gorm:"size:64;index:idx_marker_name"` // Panel name, marker<N>
	EntityID      int            `json:"entityId" gorm:"index:idx_marker_entity_id"`
	WorldPosition geom.Point     `json:"worldPosition"` // Captured entity origin as an XYZ point
	Elevation     float64        `json:"elevation"`     // Z of the captured origin
	Updates       uint           `json:"updates"`       // Placements applied over the lifetime
	RemovedAt     sql.NullTime   `json:"removedAt"`
	LastStyles    datatypes.JSON `json:"lastStyles"` // Last transforms applied, {"body": ..., "icon": ...}
}

func (*Marker) TableName() string {
	return "markers"
}

// Placement is one update applied to a marker's panels
type Placement struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"`
	MarkerID  uint      `json:"markerId" gorm:"index:idx_placement_marker_id"`
	Marker    Marker    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MarkerID;"`
	Sequence  uint      `json:"sequence"`
	Rotation  float64   `json:"rotation"` // degrees
	X         float64   `json:"x"`        // body translation in reference space
	Y         float64   `json:"y"`
	IconX     float64   `json:"iconX"`
	IconY     float64   `json:"iconY"`
	OffScreen bool      `json:"offScreen" gorm:"default:false"`
	Transform string    `json:"transform" gorm:"size:128"`
}

func (*Placement) TableName() string {
	return "placements"
}
