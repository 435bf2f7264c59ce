// pkg/core/vector.go
package core

// ScreenVector is a point in screen pixel space.
// X grows to the right, Y grows downward.
type ScreenVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorldVector is a point in world coordinates.
type WorldVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"` // vertical, ignored for bearings
}

// Bounds is a screen rectangle described by its top-left corner and size.
type Bounds struct {
	Offset ScreenVector `json:"offset"`
	Size   ScreenVector `json:"size"`
}

// Placement is the result of pointing a marker for one update.
// Rotation is in degrees, Position and Icon are translations in reference space.
type Placement struct {
	Rotation  float64      `json:"rotation"`
	Position  ScreenVector `json:"position"`
	Icon      ScreenVector `json:"icon"`
	OffScreen bool         `json:"offScreen"`
}

// Reference-resolution layout. All marker geometry runs in this space and is
// scaled by screenWidth/ReferenceWidth only where the host camera is queried.
const (
	ReferenceWidth = 1920.0

	OnScreenRotation = 90.0
	RadialDivisor    = 2.1
	RadialInset      = 200.0
	UpperClampMargin = 40.0
)

var (
	ViewportOffset = ScreenVector{X: 10, Y: 80}
	ViewportSize   = ScreenVector{X: 1760, Y: 550}
	ScreenCenter   = ScreenVector{X: 900, Y: 405}

	// RenderOffset compensates for the marker graphic's own anchor point.
	RenderOffset = ScreenVector{X: -100, Y: -200}
	// IconOffset centers the icon inside the marker graphic.
	IconOffset = ScreenVector{X: 40, Y: 15}
)

// DefaultBounds returns the viewport rectangle markers are clamped to.
func DefaultBounds() Bounds {
	return Bounds{Offset: ViewportOffset, Size: ViewportSize}
}
