// Package glview is the OpenGL 4.1 core backend: a GLFW window feeding the
// input dispatcher and a Device that executes scene frames on the GPU.
//
// Everything in this package must run on the main OS thread.
package glview

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/taigrr/stilllife/pkg/input"
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

// WindowConfig controls window creation.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
}

// Window is a GLFW window with a current OpenGL 4.1 core context.
type Window struct {
	win *glfw.Window
}

// OpenWindow initializes GLFW, creates the window, makes its context current
// and loads the GL function pointers. The cursor is captured.
func OpenWindow(cfg WindowConfig) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
	})

	return &Window{win: win}, nil
}

// Attach forwards keyboard, cursor, scroll and mouse button events to d.
func (w *Window) Attach(d *input.Dispatcher) {
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		d.Key(keyFromGLFW(key), actionFromGLFW(action))
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		d.CursorMoved(x, y)
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		d.Scrolled(yoff)
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		d.MouseButton(buttonFromGLFW(button), actionFromGLFW(action))
	})
}

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (int, int) {
	return w.win.GetFramebufferSize()
}

// ShouldClose reports whether the window was asked to close.
func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose()
}

// SwapAndPoll presents the frame and processes pending events.
func (w *Window) SwapAndPoll() {
	w.win.SwapBuffers()
	glfw.PollEvents()
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.win.Destroy()
	glfw.Terminate()
}

func keyFromGLFW(k glfw.Key) input.Key {
	switch k {
	case glfw.KeyEscape:
		return input.KeyEscape
	case glfw.KeyW:
		return input.KeyW
	case glfw.KeyA:
		return input.KeyA
	case glfw.KeyS:
		return input.KeyS
	case glfw.KeyD:
		return input.KeyD
	case glfw.KeyQ:
		return input.KeyQ
	case glfw.KeyE:
		return input.KeyE
	case glfw.KeyP:
		return input.KeyP
	case glfw.KeyO:
		return input.KeyO
	}
	return input.KeyUnknown
}

func actionFromGLFW(a glfw.Action) input.Action {
	switch a {
	case glfw.Release:
		return input.Release
	case glfw.Repeat:
		return input.Repeat
	}
	return input.Press
}

func buttonFromGLFW(b glfw.MouseButton) input.MouseButton {
	switch b {
	case glfw.MouseButtonLeft:
		return input.ButtonLeft
	case glfw.MouseButtonMiddle:
		return input.ButtonMiddle
	case glfw.MouseButtonRight:
		return input.ButtonRight
	}
	return input.ButtonOther
}
