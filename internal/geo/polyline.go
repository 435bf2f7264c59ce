package geo

import (
	"encoding/json"
	"fmt"

	"github.com/overlaykit/markers/pkg/core"
)

// ParseWorldPoints parses a JSON array of coordinates into world positions.
// Input format: "[[x1,y1],[x2,y2,z2],...]"
func ParseWorldPoints(input string) ([]core.WorldVector, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse world points JSON: %w", err)
	}

	if len(coords) == 0 {
		return nil, fmt.Errorf("world point list is empty")
	}

	points := make([]core.WorldVector, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		points[i] = core.WorldVector{X: coord[0], Y: coord[1]}
		if len(coord) > 2 {
			points[i].Z = coord[2]
		}
	}

	return points, nil
}
