// stilllife - Terminal still life
// Renders the lit still-life scene in the terminal with a free-fly camera.
//
// Controls:
//
//	W/S         - Move forward/backward
//	A/D         - Strafe left/right
//	Q/E         - Move up/down
//	Mouse       - Look around (perspective view only)
//	Scroll      - Zoom
//	P/O         - Perspective / orthographic view
//	X           - Toggle wireframe mode (x-ray)
//	?           - Toggle HUD overlay (FPS, view mode, culling counters)
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"

	"github.com/taigrr/stilllife/pkg/app"
	"github.com/taigrr/stilllife/pkg/input"
	"github.com/taigrr/stilllife/pkg/render"
)

var (
	textureDir = flag.String("textures", app.DefaultTextureDir, "Directory holding the scene textures")
	scenePath  = flag.String("scene", "", "YAML scene table (default: built-in still life)")
	targetFPS  = flag.Int("fps", 60, "Target FPS")
	logPath    = flag.String("log", "", "Write logs to this file")
	fallback   = flag.Bool("fallback-textures", false, "Use a checkerboard for missing texture files")
	snapshot   = flag.String("snapshot", "", "Render one frame to this PNG file and exit")
	size       = flag.String("size", "800x800", "Snapshot size (WxH)")
	mouseScale = flag.Float64("mouse-scale", 8, "Mouse look sensitivity per terminal cell")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "stilllife - Terminal still life\n\n")
		fmt.Fprintf(os.Stderr, "Usage: stilllife [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Move and strafe\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Move up/down\n")
		fmt.Fprintf(os.Stderr, "  Mouse       - Look around\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom\n")
		fmt.Fprintf(os.Stderr, "  P/O         - Perspective/orthographic view\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes text logs to path, or discards them: stderr belongs to
// the alternate screen while rendering.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }, nil
}

func run() error {
	logger, closeLog, err := newLogger(*logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := app.Config{
		TextureDir:       *textureDir,
		ScenePath:        *scenePath,
		FallbackTextures: *fallback,
		Smoothing:        true,
		FPS:              *targetFPS,
		Logger:           logger,
	}

	if *snapshot != "" {
		return runSnapshot(cfg)
	}
	return runTerminal(cfg)
}

// runSnapshot renders the perspective view once without a terminal.
func runSnapshot(cfg app.Config) error {
	var width, height int
	if _, err := fmt.Sscanf(*size, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %q (want WxH)", *size)
	}

	dev := render.NewDevice(width, height)
	ctx, err := app.New(cfg, dev)
	if err != nil {
		return err
	}
	defer ctx.Close()

	if err := ctx.LoadWithProgress(os.Stderr); err != nil {
		return err
	}
	if err := ctx.Render(width, height); err != nil {
		return err
	}
	if err := dev.Framebuffer().SavePNG(*snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	fmt.Printf("Wrote %s (%dx%d, %d triangles)\n", *snapshot, width, height, dev.CullingStats.Triangles)
	return nil
}

func runTerminal(cfg app.Config) error {
	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	fbWidth, fbHeight := render.FramebufferSize(width, height)
	dev := render.NewDevice(fbWidth, fbHeight)

	ctx, err := app.New(cfg, dev)
	if err != nil {
		return err
	}
	defer ctx.Close()

	// Textures load before the alt screen so the progress bar stays visible.
	if err := ctx.LoadWithProgress(os.Stderr); err != nil {
		return err
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	if err := term.Resize(width, height); err != nil {
		return fmt.Errorf("resize terminal: %w", err)
	}
	term.WriteString(ansi.SetModeMouseAnyEvent + ansi.SetModeMouseExtSgr)

	cleanup := func() {
		term.WriteString(ansi.ResetModeMouseAnyEvent + ansi.ResetModeMouseExtSgr)
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	// Context for clean shutdown
	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Events are forwarded to the render loop, which owns the camera.
	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-sigCtx.Done():
				return
			}
		}
	}()

	hud := NewHUD()
	targetDuration := time.Second / time.Duration(max(*targetFPS, 1))

	for {
		now := time.Now()

	drain:
		for {
			select {
			case ev := <-events:
				switch ev := ev.(type) {
				case uv.WindowSizeEvent:
					width, height = ev.Width, ev.Height
					term.Erase()
					if err := term.Resize(width, height); err != nil {
						return fmt.Errorf("resize terminal: %w", err)
					}
					fbWidth, fbHeight = render.FramebufferSize(width, height)
					dev.Resize(fbWidth, fbHeight)
				case uv.KeyPressEvent:
					switch {
					case ev.MatchString("ctrl+c"):
						ctx.Input.RequestQuit()
					case ev.MatchString("x"):
						dev.Wireframe = !dev.Wireframe
					case ev.MatchString("?"), ev.MatchString("shift+/"):
						hud.Visible = !hud.Visible
					default:
						action := input.Press
						if ev.IsRepeat {
							action = input.Repeat
						}
						ctx.Input.Key(keyFromEvent(ev), action)
					}
				case uv.KeyReleaseEvent:
					ctx.Input.Key(keyFromRelease(ev), input.Release)
				case uv.MouseClickEvent:
					ctx.Input.MouseButton(buttonFromMouse(ev.Button), input.Press)
				case uv.MouseReleaseEvent:
					ctx.Input.MouseButton(buttonFromMouse(ev.Button), input.Release)
				case uv.MouseMotionEvent:
					ctx.Input.CursorMoved(float64(ev.X)**mouseScale, float64(ev.Y)**mouseScale)
				case uv.MouseWheelEvent:
					switch ev.Button {
					case uv.MouseWheelUp:
						ctx.Input.Scrolled(1)
					case uv.MouseWheelDown:
						ctx.Input.Scrolled(-1)
					}
				}
			default:
				break drain
			}
		}

		if ctx.ShouldQuit() || sigCtx.Err() != nil {
			return nil
		}

		ctx.Tick(now)
		if err := ctx.Render(fbWidth, fbHeight); err != nil {
			return err
		}

		// Display
		area := term.Bounds()
		dev.Framebuffer().Draw(term, area)
		hud.UpdateFPS()
		hud.Draw(term, area, ctx.Input.Mode, dev.Wireframe, dev.CullingStats)
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

var keyNames = []struct {
	name string
	key  input.Key
}{
	{"esc", input.KeyEscape},
	{"w", input.KeyW},
	{"a", input.KeyA},
	{"s", input.KeyS},
	{"d", input.KeyD},
	{"q", input.KeyQ},
	{"e", input.KeyE},
	{"p", input.KeyP},
	{"o", input.KeyO},
}

func keyFromEvent(ev uv.KeyPressEvent) input.Key {
	for _, k := range keyNames {
		if ev.MatchString(k.name) {
			return k.key
		}
	}
	return input.KeyUnknown
}

func keyFromRelease(ev uv.KeyReleaseEvent) input.Key {
	for _, k := range keyNames {
		if ev.MatchString(k.name) {
			return k.key
		}
	}
	return input.KeyUnknown
}

func buttonFromMouse(b uv.MouseButton) input.MouseButton {
	switch b {
	case uv.MouseLeft:
		return input.ButtonLeft
	case uv.MouseMiddle:
		return input.ButtonMiddle
	case uv.MouseRight:
		return input.ButtonRight
	}
	return input.ButtonOther
}
