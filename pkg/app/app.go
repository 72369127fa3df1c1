// Package app wires the scene, the camera and the input dispatcher to a
// rendering backend. Both frontends drive the same Context.
package app

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/taigrr/stilllife/pkg/camera"
	"github.com/taigrr/stilllife/pkg/input"
	"github.com/taigrr/stilllife/pkg/models"
	"github.com/taigrr/stilllife/pkg/render"
	"github.com/taigrr/stilllife/pkg/scene"
)

// DefaultTextureDir is where textures are looked up relative to the working
// directory.
const DefaultTextureDir = "../resources/textures"

// Backend receives resources once at startup and executes one frame per
// Render call.
type Backend interface {
	UploadTexture(name string, img *render.Image) error
	UploadMesh(name string, mesh *models.Mesh) error
	Execute(f *scene.Frame) error
	Release()
}

// Config controls startup.
type Config struct {
	TextureDir string
	ScenePath  string // empty uses the built-in still life

	// FallbackTextures replaces missing texture files with a checkerboard.
	FallbackTextures bool

	// Smoothing enables eased, self-expiring key holds for frontends
	// without key release events.
	Smoothing bool
	FPS       int

	Logger *slog.Logger
}

// Context is the running application.
type Context struct {
	Scene   *scene.Scene
	Camera  *camera.Camera
	Input   *input.Dispatcher
	Backend Backend
	Logger  *slog.Logger

	cfg       Config
	sceneDir  string
	lastFrame time.Time
}

// New creates a context with the camera at the perspective preset. The scene
// table is read here; resources are uploaded by Load.
func New(cfg Config, backend Backend) (*Context, error) {
	if cfg.TextureDir == "" {
		cfg.TextureDir = DefaultTextureDir
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	sc := scene.Default()
	sceneDir := "."
	if cfg.ScenePath != "" {
		var err error
		sc, err = scene.LoadFile(cfg.ScenePath)
		if err != nil {
			return nil, err
		}
		sceneDir = filepath.Dir(cfg.ScenePath)
	}

	preset := scene.Perspective.Preset()
	cam := camera.New(preset.Position)
	cam.Apply(preset)

	return &Context{
		Scene:    sc,
		Camera:   cam,
		Input:    input.NewDispatcher(cam, cfg.Smoothing, cfg.FPS, cfg.Logger),
		Backend:  backend,
		Logger:   cfg.Logger,
		cfg:      cfg,
		sceneDir: sceneDir,
	}, nil
}

// TextureCount is the number of textures Load reads, for progress reporting.
func (c *Context) TextureCount() int {
	return len(c.Scene.Textures)
}

// Load reads every texture and builds every mesh the scene uses, uploading
// them to the backend. progress, when non-nil, is called after each texture
// with its name. The first failure aborts.
func (c *Context) Load(progress func(name string)) error {
	for _, name := range c.Scene.TextureNames() {
		img, err := c.loadTexture(name)
		if err != nil {
			return err
		}
		if err := c.Backend.UploadTexture(name, img); err != nil {
			return fmt.Errorf("upload texture %q: %w", name, err)
		}
		c.Logger.Info("texture loaded", "name", name, "width", img.Width, "height", img.Height, "channels", img.Channels)
		if progress != nil {
			progress(name)
		}
	}

	for _, name := range c.Scene.MeshNames() {
		mesh, err := c.buildMesh(name)
		if err != nil {
			return err
		}
		if err := c.Backend.UploadMesh(name, mesh); err != nil {
			return fmt.Errorf("upload mesh %q: %w", name, err)
		}
		c.Logger.Debug("mesh ready", "name", name, "vertices", mesh.VertexCount(), "triangles", mesh.TriangleCount())
	}
	return nil
}

// LoadWithProgress is Load with a progress bar for the textures written to w.
// The bar is cleared when loading finishes.
func (c *Context) LoadWithProgress(w io.Writer) error {
	if c.TextureCount() == 0 {
		return c.Load(nil)
	}
	bar := progressbar.NewOptions(c.TextureCount(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("loading textures"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	err := c.Load(func(name string) {
		bar.Describe(name)
		_ = bar.Add(1)
	})
	if err != nil {
		_ = bar.Exit()
		return err
	}
	return bar.Finish()
}

func (c *Context) loadTexture(name string) (*render.Image, error) {
	path := filepath.Join(c.cfg.TextureDir, c.Scene.Textures[name])
	img, err := render.LoadImage(path)
	if err == nil {
		return img, nil
	}
	if c.cfg.FallbackTextures && errors.Is(err, fs.ErrNotExist) {
		c.Logger.Warn("texture missing, using checkerboard", "name", name, "path", path)
		return render.CheckerImage(64, 64, 8, color.RGBA{200, 200, 200, 255}, color.RGBA{90, 90, 90, 255}), nil
	}
	return nil, fmt.Errorf("failed to load texture %q: %w", name, err)
}

func (c *Context) buildMesh(name string) (*models.Mesh, error) {
	if file, ok := c.Scene.Meshes[name]; ok {
		if !filepath.IsAbs(file) {
			file = filepath.Join(c.sceneDir, file)
		}
		mesh, err := models.LoadGLB(file)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", name, err)
		}
		return mesh, nil
	}
	return models.Generate(name)
}

// Tick advances input by the time since the previous tick. The first tick
// only records the time.
func (c *Context) Tick(now time.Time) {
	if c.lastFrame.IsZero() {
		c.lastFrame = now
		return
	}
	dt := now.Sub(c.lastFrame).Seconds()
	c.lastFrame = now
	c.Input.Update(dt)
}

// Frame builds the commands for a width×height target without executing
// them.
func (c *Context) Frame(width, height int) *scene.Frame {
	aspect := 1.0
	if width > 0 && height > 0 {
		aspect = float64(width) / float64(height)
	}
	return scene.Build(c.Scene, c.Camera, c.Input.Mode, aspect)
}

// Render builds and executes one frame.
func (c *Context) Render(width, height int) error {
	if err := c.Backend.Execute(c.Frame(width, height)); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// ShouldQuit reports whether the user asked to close.
func (c *Context) ShouldQuit() bool {
	return c.Input.ShouldQuit()
}

// Close releases backend resources.
func (c *Context) Close() {
	c.Backend.Release()
	c.Logger.Info("shutdown")
}
