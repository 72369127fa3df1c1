package render

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/stilllife/pkg/camera"
	"github.com/taigrr/stilllife/pkg/math3d"
	"github.com/taigrr/stilllife/pkg/models"
	"github.com/taigrr/stilllife/pkg/scene"
	"github.com/taigrr/stilllife/pkg/shading"
)

const testSize = 32

// topDown looks straight down at the origin from y = 5 with the
// orthographic projection.
func topDown() (view, proj math3d.Mat4) {
	view = math3d.LookAt(math3d.V3(0, 5, 0), math3d.V3(0, 0, 0), math3d.V3(0, 0, -1))
	return view, scene.Projection(scene.Orthographic, camera.DefaultZoom, 1)
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := NewDevice(testSize, testSize)
	for _, kind := range []string{"plane", "sphere", "box"} {
		m, err := models.Generate(kind)
		if err != nil {
			t.Fatal(err)
		}
		if err := d.UploadMesh(kind, m); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func center(d *Device) color.RGBA {
	return d.Framebuffer().GetPixel(testSize/2, testSize/2)
}

func brightness(c color.RGBA) int {
	return int(c.R) + int(c.G) + int(c.B)
}

func TestExecuteUnknownResources(t *testing.T) {
	d := newTestDevice(t)
	view, proj := topDown()

	tests := []struct {
		name    string
		draw    scene.Draw
		wantErr error
	}{
		{"mesh", scene.Draw{Name: "teapot", Mesh: "teapot", Model: math3d.Identity()}, ErrUnknownMesh},
		{"texture", scene.Draw{Name: "crate", Mesh: "box", Texture: "oak", HasTexture: true, Model: math3d.Identity()}, ErrUnknownTexture},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &scene.Frame{Passes: []scene.Pass{{
				Program:    scene.ProgramPhong,
				View:       view,
				Projection: proj,
				Lighting:   shading.DefaultUniforms(),
				Draws:      []scene.Draw{tc.draw},
			}}}
			if err := d.Execute(f); !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestUploadTextureChannels(t *testing.T) {
	d := NewDevice(1, 1)
	gray := &Image{Width: 1, Height: 1, Channels: 1, Pix: []byte{7}}
	if err := d.UploadTexture("gray", gray); !errors.Is(err, ErrUnsupportedChannels) {
		t.Errorf("err = %v, want ErrUnsupportedChannels", err)
	}
	if err := d.UploadTexture("checker", CheckerImage(2, 2, 1, color.RGBA{A: 255}, color.RGBA{R: 255, A: 255})); err != nil {
		t.Error(err)
	}
}

func TestLitFacingBrighterThanFacingAway(t *testing.T) {
	view, proj := topDown()
	lighting := shading.DefaultUniforms()
	lighting.Lights[0].Position = math3d.V3(0, 5, 0)
	lighting.Lights[1].Position = math3d.V3(0, 5, 0)
	lighting.ViewPosition = math3d.V3(0, 5, 0)

	render := func(model math3d.Mat4) color.RGBA {
		d := newTestDevice(t)
		f := &scene.Frame{
			Clear: math3d.V4(0, 0, 0, 1),
			Passes: []scene.Pass{{
				Program:    scene.ProgramPhong,
				View:       view,
				Projection: proj,
				Lighting:   lighting,
				Draws: []scene.Draw{{
					Name:  "quad",
					Mesh:  "plane",
					Color: math3d.V4(0.2, 0.2, 0.2, 1),
					Model: model,
				}},
			}},
		}
		if err := d.Execute(f); err != nil {
			t.Fatal(err)
		}
		return center(d)
	}

	facing := render(math3d.Identity())
	away := render(math3d.Rotate(math3d.V3(1, 0, 0), math.Pi))

	if brightness(away) == 0 {
		t.Fatal("back-facing quad was not drawn")
	}
	if brightness(facing) <= brightness(away) {
		t.Errorf("facing %v should be brighter than away %v", facing, away)
	}
	// 2 × (ambient + diffuse + specular) × 0.2 in red.
	if want := uint8(math.Round(2 * (0.5 + 1 + 0.2) * 0.2 * 255)); facing.R != want {
		t.Errorf("facing red = %d, want %d", facing.R, want)
	}
	// Lights and eye sit behind the flipped quad: ambient only.
	if want := uint8(math.Round(2 * 0.5 * 0.2 * 255)); away.R != want {
		t.Errorf("away red = %d, want %d", away.R, want)
	}
}

func TestMarkerPassIsWhite(t *testing.T) {
	d := newTestDevice(t)
	view, proj := topDown()
	f := &scene.Frame{
		Clear: math3d.V4(0, 0, 0, 1),
		Passes: []scene.Pass{{
			Program:    scene.ProgramMarker,
			View:       view,
			Projection: proj,
			Draws: []scene.Draw{{
				Name:  "marker",
				Mesh:  "sphere",
				Color: shading.Marker(),
				Model: math3d.Identity(),
			}},
		}},
	}
	if err := d.Execute(f); err != nil {
		t.Fatal(err)
	}
	if got := center(d); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("marker pixel = %v, want white", got)
	}
	if got := d.Framebuffer().GetPixel(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("corner = %v, want clear color", got)
	}
}

func TestDepthKeepsNearer(t *testing.T) {
	view, proj := topDown()
	red := scene.Draw{Name: "near", Mesh: "plane", Color: math3d.V4(1, 0, 0, 1), Model: math3d.Translate(math3d.V3(0, 1, 0))}
	green := scene.Draw{Name: "far", Mesh: "plane", Color: math3d.V4(0, 1, 0, 1), Model: math3d.Identity()}

	var depths []float64
	for _, order := range [][]scene.Draw{{red, green}, {green, red}} {
		d := newTestDevice(t)
		f := &scene.Frame{Passes: []scene.Pass{{
			Program:    scene.ProgramMarker,
			View:       view,
			Projection: proj,
			Draws:      order,
		}}}
		if err := d.Execute(f); err != nil {
			t.Fatal(err)
		}
		if got := center(d); got != (color.RGBA{255, 0, 0, 255}) {
			t.Errorf("draw order %s, %s: center = %v, want red", order[0].Name, order[1].Name, got)
		}
		fb := d.Framebuffer()
		depths = append(depths, fb.DepthAt(fb.Width/2, fb.Height/2))
	}
	if depths[0] != depths[1] || depths[0] >= 1 {
		t.Errorf("center depths = %v, want equal and inside the volume", depths)
	}
}

func TestCullingStats(t *testing.T) {
	d := newTestDevice(t)
	view, proj := topDown()
	f := &scene.Frame{Passes: []scene.Pass{{
		Program:    scene.ProgramMarker,
		View:       view,
		Projection: proj,
		Draws: []scene.Draw{
			{Name: "visible", Mesh: "box", Color: shading.Marker(), Model: math3d.Identity()},
			{Name: "above camera", Mesh: "box", Color: shading.Marker(), Model: math3d.Translate(math3d.V3(0, 20, 0))},
			{Name: "off to the side", Mesh: "box", Color: shading.Marker(), Model: math3d.Translate(math3d.V3(50, 0, 0))},
		},
	}}}
	if err := d.Execute(f); err != nil {
		t.Fatal(err)
	}
	want := CullingStats{MeshesTested: 3, MeshesCulled: 2, MeshesDrawn: 1}
	got := d.CullingStats
	got.Triangles = 0
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
	if d.CullingStats.Triangles == 0 {
		t.Error("no triangles rasterized")
	}
}

func TestNearPlaneClipping(t *testing.T) {
	// A floor passing under the camera crosses the near plane; the visible
	// part must still be drawn without artifacts from vertices behind it.
	d := newTestDevice(t)
	cam := camera.New(math3d.V3(0, 1, 0))
	f := &scene.Frame{Passes: []scene.Pass{{
		Program:    scene.ProgramMarker,
		View:       cam.ViewMatrix(),
		Projection: scene.Projection(scene.Perspective, cam.Zoom, 1),
		Draws: []scene.Draw{{
			Name:  "floor",
			Mesh:  "plane",
			Color: shading.Marker(),
			Model: math3d.Scale(math3d.V3(10, 1, 10)),
		}},
	}}}
	if err := d.Execute(f); err != nil {
		t.Fatal(err)
	}
	fb := d.Framebuffer()
	if got := fb.GetPixel(testSize/2, testSize-1); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("bottom row = %v, want floor", got)
	}
	if got := fb.GetPixel(testSize/2, 0); got.R != 0 {
		t.Errorf("top row = %v, want clear", got)
	}
}

func TestDefaultSceneRenders(t *testing.T) {
	sc := scene.Default()
	d := NewDevice(64, 64)
	for _, name := range sc.MeshNames() {
		m, err := models.Generate(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := d.UploadMesh(name, m); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range sc.TextureNames() {
		img := CheckerImage(8, 8, 2, color.RGBA{200, 200, 200, 255}, color.RGBA{60, 60, 60, 255})
		if err := d.UploadTexture(name, img); err != nil {
			t.Fatal(err)
		}
	}

	cam := camera.New(math3d.Vec3{})
	cam.Apply(scene.Perspective.Preset())

	for _, wire := range []bool{false, true} {
		d.Wireframe = wire
		if err := d.Execute(scene.Build(sc, cam, scene.Perspective, 1)); err != nil {
			t.Fatalf("wireframe=%v: %v", wire, err)
		}
		lit := 0
		for _, p := range d.Framebuffer().Pixels {
			if brightness(p) > 0 {
				lit++
			}
		}
		if lit == 0 {
			t.Errorf("wireframe=%v: nothing drawn", wire)
		}
		if d.CullingStats.MeshesDrawn == 0 {
			t.Errorf("wireframe=%v: every mesh culled", wire)
		}
	}
}

func TestToRGBA(t *testing.T) {
	tests := []struct {
		in   math3d.Vec4
		want color.RGBA
	}{
		{math3d.V4(0, 0, 0, 1), color.RGBA{0, 0, 0, 255}},
		{math3d.V4(1, 0.5, 0, 1), color.RGBA{255, 128, 0, 255}},
		{math3d.V4(2.2, -1, math.NaN(), 1), color.RGBA{255, 0, 0, 255}},
	}
	for _, tc := range tests {
		if got := ToRGBA(tc.in); got != tc.want {
			t.Errorf("ToRGBA(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFramebufferResize(t *testing.T) {
	fb := NewFramebuffer(4, 2)
	if len(fb.Pixels) != 8 || len(fb.Depth) != 8 {
		t.Errorf("buffers = %d/%d, want 8", len(fb.Pixels), len(fb.Depth))
	}
	fb.Resize(3, 3)
	if fb.Width != 3 || fb.Height != 3 || len(fb.Pixels) != 9 || len(fb.Depth) != 9 {
		t.Errorf("buffers = %d/%d, want 9", len(fb.Pixels), len(fb.Depth))
	}
	fb.Clear(color.RGBA{1, 2, 3, 255})
	for i, p := range fb.Pixels {
		if p != (color.RGBA{1, 2, 3, 255}) || fb.Depth[i] != math.MaxFloat64 {
			t.Fatalf("pixel %d not cleared", i)
		}
	}
	if w, h := FramebufferSize(80, 24); w != 80 || h != 48 {
		t.Errorf("FramebufferSize = %dx%d", w, h)
	}
}

func BenchmarkExecuteDefaultScene(b *testing.B) {
	sc := scene.Default()
	d := NewDevice(160, 96)
	for _, name := range sc.MeshNames() {
		m, _ := models.Generate(name)
		_ = d.UploadMesh(name, m)
	}
	for _, name := range sc.TextureNames() {
		_ = d.UploadTexture(name, CheckerImage(64, 64, 8, color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 255}))
	}
	cam := camera.New(math3d.Vec3{})
	cam.Apply(scene.Perspective.Preset())
	frame := scene.Build(sc, cam, scene.Perspective, 160.0/96)

	for b.Loop() {
		_ = d.Execute(frame)
	}
}
