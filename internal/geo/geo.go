package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/overlaykit/markers/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// WorldVectorFromString parses a string in the format "x,y" or "x,y,z" into a core.WorldVector.
// A missing z component is treated as ground level.
func WorldVectorFromString(coords string) (core.WorldVector, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return core.WorldVector{}, ErrInvalidCoordinates
	}
	x, err := parseComponent(coordsSplit[0])
	if err != nil {
		return core.WorldVector{}, ErrInvalidCoordinates
	}
	y, err := parseComponent(coordsSplit[1])
	if err != nil {
		return core.WorldVector{}, ErrInvalidCoordinates
	}
	var z float64
	if len(coordsSplit) > 2 {
		z, err = parseComponent(coordsSplit[2])
		if err != nil {
			return core.WorldVector{}, ErrInvalidCoordinates
		}
	}
	v := core.WorldVector{X: x, Y: y, Z: z}
	if !Finite3(v) {
		return core.WorldVector{}, ErrInvalidCoordinates
	}
	return v, nil
}

// ScreenVectorFromString parses a "x,y" string into a core.ScreenVector.
func ScreenVectorFromString(coords string) (core.ScreenVector, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.ScreenVector{}, ErrInvalidCoordinates
	}
	x, err := parseComponent(coordsSplit[0])
	if err != nil {
		return core.ScreenVector{}, ErrInvalidCoordinates
	}
	y, err := parseComponent(coordsSplit[1])
	if err != nil {
		return core.ScreenVector{}, ErrInvalidCoordinates
	}
	v := core.ScreenVector{X: x, Y: y}
	if !Finite2(v) {
		return core.ScreenVector{}, ErrInvalidCoordinates
	}
	return v, nil
}

func parseComponent(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(strings.Trim(s, `"[] `)), 64)
}

// PointFromWorld converts a world position into an XYZ point for storage.
// Geometry data is stored as WKB through the geom.Point Scan/Value implementation.
func PointFromWorld(v core.WorldVector) (geom.Point, error) {
	if math.IsNaN(v.Z) || math.IsInf(v.Z, 0) {
		return geom.Point{}, fmt.Errorf("%w: z=%v", ErrInvalidCoordinates, v.Z)
	}
	point, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: v.X, Y: v.Y},
			Z:    v.Z,
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %w", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// WorldFromPoint is the inverse of PointFromWorld. Empty points return the origin.
func WorldFromPoint(p geom.Point) core.WorldVector {
	coords, ok := p.Coordinates()
	if !ok {
		return core.WorldVector{}
	}
	return core.WorldVector{X: coords.X, Y: coords.Y, Z: coords.Z}
}
