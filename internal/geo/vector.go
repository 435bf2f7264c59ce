package geo

import (
	"math"

	"github.com/overlaykit/markers/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

func xy(v core.ScreenVector) geom.XY {
	return geom.XY{X: v.X, Y: v.Y}
}

func screen(w geom.XY) core.ScreenVector {
	return core.ScreenVector{X: w.X, Y: w.Y}
}

// Add2 returns a + b.
func Add2(a, b core.ScreenVector) core.ScreenVector {
	return screen(xy(a).Add(xy(b)))
}

// Sub2 returns a - b.
func Sub2(a, b core.ScreenVector) core.ScreenVector {
	return screen(xy(a).Sub(xy(b)))
}

// Scale2 returns v * s.
func Scale2(v core.ScreenVector, s float64) core.ScreenVector {
	return screen(xy(v).Scale(s))
}

// Length2 returns the euclidean length of v.
func Length2(v core.ScreenVector) float64 {
	return xy(v).Length()
}

// Normalize2 returns v scaled to unit length.
// A zero (or non-finite length) vector yields the zero vector instead of NaN.
func Normalize2(v core.ScreenVector) core.ScreenVector {
	l := Length2(v)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return core.ScreenVector{}
	}
	return Scale2(v, 1/l)
}

// Direction2 returns the normalized x/y direction from -> to. World z is ignored.
func Direction2(from, to core.WorldVector) core.ScreenVector {
	return Normalize2(core.ScreenVector{X: to.X - from.X, Y: to.Y - from.Y})
}

// Finite2 reports whether both components are finite numbers.
func Finite2(v core.ScreenVector) bool {
	return finite(v.X) && finite(v.Y)
}

// Finite3 reports whether all components are finite numbers.
func Finite3(v core.WorldVector) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
