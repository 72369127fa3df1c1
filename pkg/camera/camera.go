// Package camera implements the free-fly Euler camera used to navigate the
// still life.
package camera

import (
	"math"

	"github.com/taigrr/stilllife/pkg/math3d"
)

// Defaults for a freshly constructed camera.
const (
	DefaultYaw         = -90.0
	DefaultPitch       = 0.0
	DefaultSpeed       = 2.5
	DefaultSensitivity = 0.1
	DefaultZoom        = 45.0

	MinZoom  = 1.0
	MaxZoom  = 45.0
	MaxPitch = 89.0
)

// Direction is a keyboard movement direction.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

var directionNames = [...]string{"forward", "backward", "left", "right", "up", "down"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "unknown"
	}
	return directionNames[d]
}

// Camera is a position plus an orientation described by yaw and pitch in
// degrees. Front, Right and Up are derived from the angles after every mouse
// movement; Apply may set them directly.
type Camera struct {
	Position math3d.Vec3
	Front    math3d.Vec3
	Up       math3d.Vec3
	Right    math3d.Vec3
	WorldUp  math3d.Vec3

	Yaw   float64
	Pitch float64

	MovementSpeed    float64 // world units per second
	MouseSensitivity float64 // degrees per cursor unit
	Zoom             float64 // vertical field of view in degrees
}

// New creates a camera at position with the default orientation, looking
// down -Z.
func New(position math3d.Vec3) *Camera {
	c := &Camera{
		Position:         position,
		WorldUp:          math3d.Up(),
		Yaw:              DefaultYaw,
		Pitch:            DefaultPitch,
		MovementSpeed:    DefaultSpeed,
		MouseSensitivity: DefaultSensitivity,
		Zoom:             DefaultZoom,
	}
	c.updateVectors()
	return c
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.Position, c.Position.Add(c.Front), c.Up)
}

// ProcessKeyboard moves the camera by MovementSpeed*dt along the axis that
// matches dir. Orientation is left unchanged.
func (c *Camera) ProcessKeyboard(dir Direction, dt float64) {
	if !finite(dt) || dt <= 0 {
		return
	}
	velocity := c.MovementSpeed * dt

	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.Front.Scale(velocity))
	case Backward:
		c.Position = c.Position.Sub(c.Front.Scale(velocity))
	case Left:
		c.Position = c.Position.Sub(c.Right.Scale(velocity))
	case Right:
		c.Position = c.Position.Add(c.Right.Scale(velocity))
	case Up:
		c.Position = c.Position.Add(c.Up.Scale(velocity))
	case Down:
		c.Position = c.Position.Sub(c.Up.Scale(velocity))
	}
}

// ProcessMouseMovement turns the camera by the cursor offset. Positive
// yoffset looks up. Pitch is clamped to ±MaxPitch.
func (c *Camera) ProcessMouseMovement(xoffset, yoffset float64) {
	if !finite(xoffset) || !finite(yoffset) {
		return
	}
	c.Yaw += xoffset * c.MouseSensitivity
	c.Pitch += yoffset * c.MouseSensitivity
	c.Pitch = math3d.Clamp(c.Pitch, -MaxPitch, MaxPitch)

	c.updateVectors()
}

// ProcessMouseScroll narrows the field of view for positive yoffset.
func (c *Camera) ProcessMouseScroll(yoffset float64) {
	if !finite(yoffset) {
		return
	}
	c.Zoom = math3d.Clamp(c.Zoom-yoffset, MinZoom, MaxZoom)
}

// Preset is a fixed camera placement.
type Preset struct {
	Position math3d.Vec3
	Front    math3d.Vec3
	Up       math3d.Vec3
}

// Apply moves the camera to p. Position, Front and Up take the preset values
// as given; Yaw and Pitch are re-derived from Front so the next mouse
// movement continues from the preset orientation.
func (c *Camera) Apply(p Preset) {
	c.Position = p.Position
	c.Front = p.Front
	c.Up = p.Up
	c.Right = c.Front.Cross(c.WorldUp).Normalize()

	f := p.Front.Normalize()
	c.Pitch = math3d.Clamp(math3d.Degrees(math.Asin(math3d.Clamp(f.Y, -1, 1))), -MaxPitch, MaxPitch)
	if f.X != 0 || f.Z != 0 {
		c.Yaw = math3d.Degrees(math.Atan2(f.Z, f.X))
	}
}

func (c *Camera) updateVectors() {
	yaw, pitch := math3d.Radians(c.Yaw), math3d.Radians(c.Pitch)
	c.Front = math3d.V3(
		math.Cos(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		math.Sin(yaw)*math.Cos(pitch),
	).Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
