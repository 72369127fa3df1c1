// Package shading holds the Phong lighting model shared by the software
// rasterizer and the GLSL programs of the OpenGL backend.
package shading

import (
	"math"

	"github.com/taigrr/stilllife/pkg/math3d"
)

// Light is a colored point light with its own specular parameters.
type Light struct {
	Color             math3d.Vec3
	Position          math3d.Vec3
	SpecularIntensity float64
	HighlightSize     float64
}

// Uniforms are the per-draw inputs of the lighting model.
type Uniforms struct {
	ObjectColor     math3d.Vec4
	AmbientColor    math3d.Vec3
	AmbientStrength float64
	Lights          [2]Light
	ViewPosition    math3d.Vec3
	HasTexture      bool
	UVScale         math3d.Vec2
}

// Fragment carries interpolated vertex outputs in world space.
type Fragment struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Sampler returns the linear RGBA color of a texture at uv.
type Sampler interface {
	Sample(uv math3d.Vec2) math3d.Vec4
}

// Contribution returns the diffuse and specular terms of l for a surface at
// pos with unit normal n, seen along the unit vector viewDir.
func (l Light) Contribution(n, pos, viewDir math3d.Vec3) (diffuse, specular math3d.Vec3) {
	dir := l.Position.Sub(pos).Normalize()

	impact := n.Dot(dir)
	if impact <= 0 {
		// Light behind the surface.
		return math3d.Vec3{}, math3d.Vec3{}
	}
	diffuse = l.Color.Scale(impact)

	reflectDir := dir.Negate().Reflect(n)
	spec := math.Pow(math.Max(viewDir.Dot(reflectDir), 0), l.HighlightSize)
	specular = l.Color.Scale(l.SpecularIntensity * spec)
	return diffuse, specular
}

// Phong shades f. Each light produces (ambient + diffuse + specular) times
// the base color; the two results are summed and alpha is forced to 1. The
// base color is the texel at UV*UVScale when HasTexture is set, otherwise
// ObjectColor.
func Phong(f Fragment, u *Uniforms, tex Sampler) math3d.Vec4 {
	n := f.Normal.Normalize()
	viewDir := u.ViewPosition.Sub(f.Position).Normalize()
	ambient := u.AmbientColor.Scale(u.AmbientStrength)

	base := u.ObjectColor.Vec3()
	if u.HasTexture && tex != nil {
		base = tex.Sample(f.UV.Mul(u.UVScale)).Vec3()
	}

	var out math3d.Vec3
	for _, l := range u.Lights {
		diffuse, specular := l.Contribution(n, f.Position, viewDir)
		out = out.Add(ambient.Add(diffuse).Add(specular).Mul(base))
	}
	return math3d.V4FromV3(out, 1)
}

// Marker is the flat color of the light marker program.
func Marker() math3d.Vec4 {
	return math3d.V4(1, 1, 1, 1)
}

// DefaultLights are the two lights of the still life.
func DefaultLights() [2]Light {
	warm := math3d.V3(1, 0.9, 0.5)
	return [2]Light{
		{Color: warm, Position: math3d.V3(-3, 7, 5), SpecularIntensity: 0.2, HighlightSize: 2},
		{Color: warm, Position: math3d.V3(3, 7, -5), SpecularIntensity: 0.2, HighlightSize: 2},
	}
}

// DefaultUniforms returns the lighting used for every scene object.
// ViewPosition is filled in per frame.
func DefaultUniforms() Uniforms {
	return Uniforms{
		ObjectColor:     math3d.V4(1, 1, 1, 1),
		AmbientColor:    math3d.V3(1, 0.9, 0.8),
		AmbientStrength: 0.5,
		Lights:          DefaultLights(),
		HasTexture:      true,
		UVScale:         math3d.V2(1, 1),
	}
}
