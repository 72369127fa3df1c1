// Package input translates keyboard and mouse events from either frontend
// into camera motion and view-mode switches.
package input

import (
	"log/slog"
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/stilllife/pkg/camera"
	"github.com/taigrr/stilllife/pkg/scene"
)

// Key is a backend-neutral key code.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyP
	KeyO
)

// Action is what happened to a key or button.
type Action int

const (
	Press Action = iota
	Release
	Repeat
)

func (a Action) String() string {
	switch a {
	case Press:
		return "pressed"
	case Release:
		return "released"
	default:
		return "repeated"
	}
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonMiddle
	ButtonRight
	ButtonOther
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	}
	return "other"
}

// HoldTimeout is how long a smoothed key stays held without a repeat.
// Terminals send no release events, only auto-repeat presses.
const HoldTimeout = 120 * time.Millisecond

var movementKeys = map[Key]camera.Direction{
	KeyW: camera.Forward,
	KeyS: camera.Backward,
	KeyA: camera.Left,
	KeyD: camera.Right,
	KeyQ: camera.Up,
	KeyE: camera.Down,
}

// held tracks one movement direction.
type held struct {
	down     bool
	lastSeen time.Time

	// eased intensity in [0, 1] when smoothing
	intensity float64
	velocity  float64
}

// Dispatcher owns the camera-facing side of input handling. All methods
// must be called from the goroutine that renders.
type Dispatcher struct {
	Camera *camera.Camera
	Mode   scene.ViewMode

	// Smoothing eases movement in and out and expires presses after
	// HoldTimeout.
	Smoothing bool
	spring    harmonica.Spring

	keys map[camera.Direction]*held
	quit bool

	firstMouse   bool
	lastX, lastY float64

	logger *slog.Logger
	now    func() time.Time
}

// NewDispatcher creates a dispatcher driving cam, starting in perspective
// mode. fps sets the spring step used when smoothing.
func NewDispatcher(cam *camera.Camera, smoothing bool, fps int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		Camera:     cam,
		Mode:       scene.Perspective,
		Smoothing:  smoothing,
		spring:     harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 12.0, 1.0),
		keys:       make(map[camera.Direction]*held),
		firstMouse: true,
		logger:     logger,
		now:        time.Now,
	}
	for _, dir := range movementKeys {
		d.keys[dir] = &held{}
	}
	return d
}

// ShouldQuit reports whether Escape was pressed.
func (d *Dispatcher) ShouldQuit() bool {
	return d.quit
}

// RequestQuit makes ShouldQuit return true.
func (d *Dispatcher) RequestQuit() {
	d.quit = true
}

// Key handles a key event.
func (d *Dispatcher) Key(k Key, a Action) {
	if dir, ok := movementKeys[k]; ok {
		h := d.keys[dir]
		switch a {
		case Press, Repeat:
			h.down = true
			h.lastSeen = d.now()
		case Release:
			h.down = false
		}
		return
	}

	if a != Press {
		return
	}
	switch k {
	case KeyEscape:
		d.quit = true
	case KeyP:
		d.SetMode(scene.Perspective)
	case KeyO:
		d.SetMode(scene.Orthographic)
	}
}

// SetMode switches the projection and moves the camera to the mode's preset.
func (d *Dispatcher) SetMode(m scene.ViewMode) {
	d.Mode = m
	d.Camera.Apply(m.Preset())
	d.firstMouse = true
	d.logger.Info("view mode", "mode", m.String())
}

// Update moves the camera for every held direction over dt seconds.
func (d *Dispatcher) Update(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	now := d.now()
	for dir, h := range d.keys {
		if !d.Smoothing {
			if h.down {
				d.Camera.ProcessKeyboard(dir, dt)
			}
			continue
		}

		if h.down && now.Sub(h.lastSeen) > HoldTimeout {
			h.down = false
		}
		target := 0.0
		if h.down {
			target = 1
		}
		h.intensity, h.velocity = d.spring.Update(h.intensity, h.velocity, target)
		h.intensity = math.Max(0, math.Min(1, h.intensity))
		if h.intensity > 1e-3 {
			d.Camera.ProcessKeyboard(dir, dt*h.intensity)
		}
	}
}

// Held reports whether dir is currently held.
func (d *Dispatcher) Held(dir camera.Direction) bool {
	h, ok := d.keys[dir]
	return ok && h.down
}

// CursorMoved handles an absolute cursor position. The first event after
// startup or a mode switch only records the position. Orthographic mode
// ignores the mouse.
func (d *Dispatcher) CursorMoved(x, y float64) {
	if d.Mode == scene.Orthographic {
		return
	}
	if d.firstMouse {
		d.lastX, d.lastY = x, y
		d.firstMouse = false
		return
	}
	xoff := x - d.lastX
	yoff := d.lastY - y // screen y grows downward
	d.lastX, d.lastY = x, y
	d.Camera.ProcessMouseMovement(xoff, yoff)
}

// Scrolled handles a vertical scroll offset.
func (d *Dispatcher) Scrolled(yoff float64) {
	d.Camera.ProcessMouseScroll(yoff)
}

// MouseButton logs button activity; buttons have no effect on the view.
func (d *Dispatcher) MouseButton(b MouseButton, a Action) {
	if b == ButtonOther {
		d.logger.Info("unhandled mouse button event", "action", a.String())
		return
	}
	d.logger.Info(b.String()+" mouse button "+a.String(), "button", b.String())
}
