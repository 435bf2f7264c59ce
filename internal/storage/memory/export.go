// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportFormatVersion is written into every trace file
const ExportFormatVersion = 1

// TraceExport is the root JSON structure
type TraceExport struct {
	FormatVersion int          `json:"formatVersion"`
	Version       string       `json:"version"`
	StartedAt     time.Time    `json:"startedAt"`
	ScreenWidth   float64      `json:"screenWidth"`
	Markers       []MarkerJSON `json:"markers"`
}

// MarkerJSON is one marker's trace.
// Placements format: [sequence, rotation, [x, y], [iconX, iconY], offScreen]
type MarkerJSON struct {
	Name       string     `json:"name"`
	EntityID   int        `json:"entityId"`
	World      []float64  `json:"world"`
	CreatedAt  time.Time  `json:"createdAt"`
	RemovedAt  *time.Time `json:"removedAt,omitempty"`
	Updates    uint       `json:"updates"`
	Placements [][]any    `json:"placements"`
}

// exportJSON writes the traces to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	timestamp := b.session.StartedAt.UTC().Format("20060102_150405")
	filename := fmt.Sprintf("markers_%s.json", timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() TraceExport {
	export := TraceExport{
		FormatVersion: ExportFormatVersion,
		Version:       b.session.Version,
		StartedAt:     b.session.StartedAt.UTC(),
		ScreenWidth:   b.session.ScreenWidth,
		Markers:       make([]MarkerJSON, 0, len(b.order)),
	}

	for _, name := range b.order {
		record := b.markers[name]
		w := record.Created.WorldPosition
		m := MarkerJSON{
			Name:       record.Created.Name,
			EntityID:   record.Created.EntityID,
			World:      []float64{w.X, w.Y, w.Z},
			CreatedAt:  record.Created.Time.UTC(),
			Updates:    uint(len(record.Placements)),
			Placements: make([][]any, 0, len(record.Placements)),
		}
		if record.Removed != nil {
			removedAt := record.Removed.Time.UTC()
			m.RemovedAt = &removedAt
			m.Updates = record.Removed.Updates
		}

		for _, p := range record.Placements {
			pl := p.Placement
			m.Placements = append(m.Placements, []any{
				p.Sequence,
				pl.Rotation,
				[]float64{pl.Position.X, pl.Position.Y},
				[]float64{pl.Icon.X, pl.Icon.Y},
				pl.OffScreen,
			})
		}

		export.Markers = append(export.Markers, m)
	}

	return export
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	encoder := json.NewEncoder(gz)
	if err := encoder.Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}
