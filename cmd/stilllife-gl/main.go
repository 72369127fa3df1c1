// stilllife-gl - OpenGL still life
// Renders the lit still-life scene in an OpenGL 4.1 window with a free-fly
// camera. Controls match the terminal frontend: W/S/A/D/Q/E move, the mouse
// looks around, scroll zooms, P/O switch the view, Esc quits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/taigrr/stilllife/pkg/app"
	"github.com/taigrr/stilllife/pkg/glview"
	"github.com/taigrr/stilllife/pkg/scene"
)

var (
	textureDir = flag.String("textures", app.DefaultTextureDir, "Directory holding the scene textures")
	scenePath  = flag.String("scene", "", "YAML scene table (default: built-in still life)")
	logLevel   = flag.String("log", "info", "Log level (debug, info, warn, error)")
	fallback   = flag.Bool("fallback-textures", false, "Use a checkerboard for missing texture files")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	win, err := glview.OpenWindow(glview.WindowConfig{
		Title:  "Still Life",
		Width:  scene.WindowSize,
		Height: scene.WindowSize,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	dev, err := glview.NewDevice(logger)
	if err != nil {
		return err
	}

	ctx, err := app.New(app.Config{
		TextureDir:       *textureDir,
		ScenePath:        *scenePath,
		FallbackTextures: *fallback,
		Logger:           logger,
	}, dev)
	if err != nil {
		dev.Release()
		return err
	}
	defer ctx.Close()

	if err := ctx.LoadWithProgress(os.Stderr); err != nil {
		return err
	}
	win.Attach(ctx.Input)

	for !win.ShouldClose() && !ctx.ShouldQuit() {
		ctx.Tick(time.Now())

		width, height := win.FramebufferSize()
		if err := ctx.Render(width, height); err != nil {
			return err
		}
		win.SwapAndPoll()
	}
	return nil
}
