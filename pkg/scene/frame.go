package scene

import (
	"github.com/taigrr/stilllife/pkg/camera"
	"github.com/taigrr/stilllife/pkg/math3d"
	"github.com/taigrr/stilllife/pkg/shading"
)

// Program selects the shading program of a pass.
type Program int

const (
	ProgramPhong Program = iota
	ProgramMarker
)

func (p Program) String() string {
	if p == ProgramMarker {
		return "marker"
	}
	return "phong"
}

// Draw is one mesh drawn with one model matrix. Texture is empty when
// HasTexture is false.
type Draw struct {
	Name       string
	Mesh       string
	Texture    string
	HasTexture bool
	Color      math3d.Vec4
	Model      math3d.Mat4
}

// Pass is a run of draws sharing a program and its per-frame uniforms.
type Pass struct {
	Program    Program
	View       math3d.Mat4
	Projection math3d.Mat4
	Lighting   shading.Uniforms // ignored by ProgramMarker
	Draws      []Draw
}

// Frame is everything a backend needs to produce one image.
type Frame struct {
	Clear  math3d.Vec4
	Passes []Pass
}

// Build records the commands for one frame: every object with Phong
// shading in table order, then one flat marker per light.
func Build(sc *Scene, cam *camera.Camera, mode ViewMode, aspect float64) *Frame {
	view := cam.ViewMatrix()
	proj := Projection(mode, cam.Zoom, aspect)

	lighting := sc.Lighting
	lighting.ViewPosition = cam.Position

	objects := Pass{
		Program:    ProgramPhong,
		View:       view,
		Projection: proj,
		Lighting:   lighting,
		Draws:      make([]Draw, 0, len(sc.Objects)),
	}
	for _, o := range sc.Objects {
		objects.Draws = append(objects.Draws, Draw{
			Name:       o.Name,
			Mesh:       o.Mesh,
			Texture:    o.Texture,
			HasTexture: o.Texture != "",
			Color:      o.Color,
			Model:      o.Transform.Matrix(),
		})
	}

	markers := Pass{
		Program:    ProgramMarker,
		View:       view,
		Projection: proj,
	}
	for _, l := range sc.Lighting.Lights {
		t := sc.Marker.Transform
		t.Translate = l.Position
		markers.Draws = append(markers.Draws, Draw{
			Name:  "light marker",
			Mesh:  sc.Marker.Mesh,
			Color: shading.Marker(),
			Model: t.Matrix(),
		})
	}

	return &Frame{
		Clear:  sc.ClearColor,
		Passes: []Pass{objects, markers},
	}
}
