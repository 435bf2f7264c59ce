// Package panel models the host UI panels a marker draws itself with.
package panel

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Style properties touched by markers.
const (
	StyleWidth           = "width"
	StyleHeight          = "height"
	StyleBackgroundImage = "backgroundImage"
	StyleBorderRadius    = "borderRadius"
	StyleOpacity         = "opacity"
	StyleTransition      = "transition"
	StyleTransform       = "transform"
)

// ClassFadeOut is the class that triggers the host's fade animation.
const ClassFadeOut = "MarkerFadeOut"

var ErrEmptyName = errors.New("panel name must not be empty")

// Panel is one host UI element. Calls after Delete are ignored.
type Panel interface {
	Name() string
	SetStyle(property, value string)
	AddClass(class string)
	Delete()
}

// Factory creates panels under a named parent.
type Factory interface {
	CreatePanel(parent, name string) (Panel, error)
}

// RotateTranslate renders `rotateZ(<deg>deg) translate3d(<x>px, <y>px, 0px)`.
func RotateTranslate(deg, x, y float64) string {
	return "rotateZ(" + formatNumber(deg) + "deg) " + Translate(x, y)
}

// Translate renders `translate3d(<x>px, <y>px, 0px)`.
func Translate(x, y float64) string {
	return "translate3d(" + formatNumber(x) + "px, " + formatNumber(y) + "px, 0px)"
}

// Transition renders `<property> <seconds>s linear 0.0ms`.
func Transition(property string, d time.Duration) string {
	return property + " " + formatNumber(d.Seconds()) + "s linear 0.0ms"
}

// ImageURL points at a file inside the host's image directory.
func ImageURL(path string) string {
	return fmt.Sprintf(`url("file://{images}/%s")`, path)
}

// Pixels renders an integer pixel length.
func Pixels(n int) string {
	return strconv.Itoa(n) + "px"
}

// formatNumber prints the shortest representation that round-trips, so 0.05
// stays 0.05 and 90 stays 90.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
