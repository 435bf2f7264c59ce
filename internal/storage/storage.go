// internal/storage/storage.go
package storage

import "github.com/overlaykit/markers/pkg/core"

// Backend is the interface all trace storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Trace recording
	RecordCreated(e *core.MarkerCreated) error
	RecordPlacement(p *core.MarkerPlacement) error
	RecordRemoved(e *core.MarkerRemoved) error
}

// Exportable is an optional interface for backends that write a trace file on Close.
type Exportable interface {
	GetExportedFilePath() string
}

// Noop discards every record.
type Noop struct{}

func (Noop) Init() error                                 { return nil }
func (Noop) Close() error                                { return nil }
func (Noop) RecordCreated(*core.MarkerCreated) error     { return nil }
func (Noop) RecordPlacement(*core.MarkerPlacement) error { return nil }
func (Noop) RecordRemoved(*core.MarkerRemoved) error     { return nil }
