package scene

import (
	"math"

	"github.com/taigrr/stilllife/pkg/camera"
	"github.com/taigrr/stilllife/pkg/math3d"
)

// Clip planes and the orthographic half extent.
const (
	Near       = 0.1
	Far        = 100.0
	OrthoHalf  = 5.0
	WindowSize = 800
)

// ViewMode selects the projection.
type ViewMode int

const (
	Perspective ViewMode = iota
	Orthographic
)

func (m ViewMode) String() string {
	if m == Orthographic {
		return "orthographic"
	}
	return "perspective"
}

// Preset returns the camera placement applied when switching to m.
func (m ViewMode) Preset() camera.Preset {
	if m == Orthographic {
		return camera.Preset{
			Position: math3d.V3(0, 0, 6),
			Front:    math3d.V3(0, 0, -1),
			Up:       math3d.Up(),
		}
	}
	return camera.Preset{
		Position: math3d.V3(0, 3, 6),
		Front:    math3d.V3(0, -1, -2).Normalize(),
		Up:       math3d.Up(),
	}
}

// Projection returns the projection matrix for m. zoom is the vertical
// field of view in degrees and only affects the perspective mode. A
// degenerate aspect (minimized window) falls back to square.
func Projection(m ViewMode, zoom, aspect float64) math3d.Mat4 {
	if m == Orthographic {
		return math3d.Orthographic(-OrthoHalf, OrthoHalf, -OrthoHalf, OrthoHalf, Near, Far)
	}
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = 1
	}
	return math3d.Perspective(math3d.Radians(zoom), aspect, Near, Far)
}
