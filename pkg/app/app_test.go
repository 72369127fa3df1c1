package app

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/taigrr/stilllife/pkg/input"
	"github.com/taigrr/stilllife/pkg/models"
	"github.com/taigrr/stilllife/pkg/render"
	"github.com/taigrr/stilllife/pkg/scene"
)

// recorder is a Backend that keeps what it was given.
type recorder struct {
	textures map[string]*render.Image
	meshes   map[string]*models.Mesh
	frames   []*scene.Frame
	released bool
	execErr  error
}

func newRecorder() *recorder {
	return &recorder{
		textures: make(map[string]*render.Image),
		meshes:   make(map[string]*models.Mesh),
	}
}

func (r *recorder) UploadTexture(name string, img *render.Image) error {
	r.textures[name] = img
	return nil
}

func (r *recorder) UploadMesh(name string, mesh *models.Mesh) error {
	r.meshes[name] = mesh
	return nil
}

func (r *recorder) Execute(f *scene.Frame) error {
	r.frames = append(r.frames, f)
	return r.execErr
}

func (r *recorder) Release() { r.released = true }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// writeTextures writes every texture of the default scene as a small PNG
// into a temp dir, skipping the names in skip.
func writeTextures(t *testing.T, skip ...string) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for name, file := range scene.Default().Textures {
		if slices.Contains(skip, name) {
			continue
		}
		f, err := os.Create(filepath.Join(dir, file))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	return dir
}

func TestLoadUploadsEverything(t *testing.T) {
	backend := newRecorder()
	ctx, err := New(Config{TextureDir: writeTextures(t), Logger: quiet}, backend)
	if err != nil {
		t.Fatal(err)
	}

	var progressed []string
	if err := ctx.Load(func(name string) { progressed = append(progressed, name) }); err != nil {
		t.Fatal(err)
	}

	if len(backend.textures) != 8 || ctx.TextureCount() != 8 {
		t.Errorf("textures = %d, want 8", len(backend.textures))
	}
	if !slices.Equal(progressed, ctx.Scene.TextureNames()) {
		t.Errorf("progress = %v", progressed)
	}
	for name, img := range backend.textures {
		if img.Channels != 3 || img.Width != 4 || img.Height != 2 {
			t.Errorf("%s: %dx%d/%d", name, img.Width, img.Height, img.Channels)
		}
	}
	for _, name := range ctx.Scene.MeshNames() {
		if backend.meshes[name] == nil {
			t.Errorf("mesh %q not uploaded", name)
		}
	}
}

func TestLoadWithProgress(t *testing.T) {
	backend := newRecorder()
	ctx, err := New(Config{TextureDir: writeTextures(t), Logger: quiet}, backend)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := ctx.LoadWithProgress(&out); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Error("no progress written")
	}
	if len(backend.textures) != 8 {
		t.Errorf("textures = %d, want 8", len(backend.textures))
	}
}

func TestLoadMissingTexture(t *testing.T) {
	dir := writeTextures(t, "candle")

	t.Run("fails", func(t *testing.T) {
		ctx, err := New(Config{TextureDir: dir, Logger: quiet}, newRecorder())
		if err != nil {
			t.Fatal(err)
		}
		err = ctx.Load(nil)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("err = %v, want not-exist", err)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		backend := newRecorder()
		ctx, err := New(Config{TextureDir: dir, FallbackTextures: true, Logger: quiet}, backend)
		if err != nil {
			t.Fatal(err)
		}
		if err := ctx.Load(nil); err != nil {
			t.Fatal(err)
		}
		if img := backend.textures["candle"]; img == nil || img.Width != 64 {
			t.Errorf("candle = %+v, want checkerboard", img)
		}
	})
}

func TestLoadRejectsGrayTexture(t *testing.T) {
	var gray bytes.Buffer
	if err := png.Encode(&gray, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	grayAlpha := bytes.Clone(gray.Bytes())
	grayAlpha[25] = 4 // IHDR color type: gray+alpha

	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"one channel", gray.Bytes()},
		{"two channels", grayAlpha},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeTextures(t, "glass")
			// PNG data under a .jpg name: format is detected from the content.
			if err := os.WriteFile(filepath.Join(dir, "glass_tex.jpg"), tc.data, 0o644); err != nil {
				t.Fatal(err)
			}

			ctx, err := New(Config{TextureDir: dir, FallbackTextures: true, Logger: quiet}, newRecorder())
			if err != nil {
				t.Fatal(err)
			}
			if err := ctx.Load(nil); !errors.Is(err, render.ErrUnsupportedChannels) {
				t.Errorf("err = %v, want ErrUnsupportedChannels", err)
			}
		})
	}
}

func TestNewWithSceneFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	table := `
textures:
  wood: wood.png
lighting:
  lights:
    - {color: [1, 1, 1], position: [0, 5, 0]}
    - {color: [1, 1, 1], position: [0, -5, 0]}
marker:
  mesh: sphere
meshes:
  mug: mug.glb
objects:
  - {name: crate, mesh: box, texture: wood}
  - {name: mug, mesh: mug}
`
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, err := New(Config{ScenePath: path, TextureDir: dir, FallbackTextures: true, Logger: quiet}, newRecorder())
	if err != nil {
		t.Fatal(err)
	}
	if len(ctx.Scene.Objects) != 2 {
		t.Fatalf("objects = %d", len(ctx.Scene.Objects))
	}
	// mug.glb does not exist next to the scene file.
	if err := ctx.Load(nil); err == nil {
		t.Error("missing glTF override should fail")
	}

	if _, err := New(Config{ScenePath: filepath.Join(dir, "nope.yaml")}, newRecorder()); err == nil {
		t.Error("missing scene file should fail")
	}
}

func TestTickAndRender(t *testing.T) {
	backend := newRecorder()
	ctx, err := New(Config{Logger: quiet}, backend)
	if err != nil {
		t.Fatal(err)
	}
	start := ctx.Camera.Position

	now := time.Unix(100, 0)
	ctx.Tick(now)
	ctx.Input.Key(input.KeyW, input.Press)
	// A long frame moves the full distance for the elapsed time.
	ctx.Tick(now.Add(2 * time.Second))

	moved := ctx.Camera.Position.Sub(start).Len()
	if want := ctx.Camera.MovementSpeed * 2; moved < want-1e-9 || moved > want+1e-9 {
		t.Errorf("moved %v, want %v", moved, want)
	}

	if err := ctx.Render(200, 100); err != nil {
		t.Fatal(err)
	}
	f := backend.frames[0]
	if len(f.Passes) != 2 || f.Passes[0].Lighting.ViewPosition != ctx.Camera.Position {
		t.Errorf("unexpected frame: %d passes", len(f.Passes))
	}
	want := scene.Projection(scene.Perspective, ctx.Camera.Zoom, 2)
	if f.Passes[0].Projection != want {
		t.Error("projection does not use the 2:1 aspect")
	}

	backend.execErr = render.ErrUnknownMesh
	if err := ctx.Render(10, 10); !errors.Is(err, render.ErrUnknownMesh) {
		t.Errorf("err = %v", err)
	}

	ctx.Input.Key(input.KeyEscape, input.Press)
	if !ctx.ShouldQuit() {
		t.Error("escape should request quit")
	}
	ctx.Close()
	if !backend.released {
		t.Error("Close did not release the backend")
	}
}

func TestRenderWithSoftwareDevice(t *testing.T) {
	dev := render.NewDevice(48, 48)
	ctx, err := New(Config{TextureDir: t.TempDir(), FallbackTextures: true, Logger: quiet}, dev)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Load(nil); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Render(48, 48); err != nil {
		t.Fatal(err)
	}
	drawn := false
	for _, p := range dev.Framebuffer().Pixels {
		if p != (color.RGBA{0, 0, 0, 255}) {
			drawn = true
			break
		}
	}
	if !drawn {
		t.Error("frame is empty")
	}
}
