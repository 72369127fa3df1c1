package models

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/taigrr/stilllife/pkg/math3d"
)

// Tessellation of the procedural primitives.
const (
	RoundSegments   = 36
	SphereStacks    = 18
	SphereSlices    = 36
	TorusMainSteps  = 30
	TorusTubeSteps  = 30
	TorusMainRadius = 1.0
	TorusTubeRadius = 0.1
)

// ErrUnknownKind is returned by Generate for an unregistered primitive.
var ErrUnknownKind = errors.New("unknown mesh kind")

var generators = map[string]func() *Mesh{
	"box":      Box,
	"plane":    Plane,
	"sphere":   Sphere,
	"cylinder": Cylinder,
	"cone":     Cone,
	"torus":    Torus,
	"pyramid4": Pyramid4,
}

// Kinds lists the names accepted by Generate, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(generators))
	for k := range generators {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Generate builds the primitive called kind.
func Generate(kind string) (*Mesh, error) {
	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return gen(), nil
}

func vertex(pos, normal math3d.Vec3, u, v float64) MeshVertex {
	return MeshVertex{Position: pos, Normal: normal, UV: math3d.V2(u, v)}
}

// Box is a unit cube centered on the origin, one quad per side, drawn as
// indexed triangles.
func Box() *Mesh {
	m := NewMesh("box")
	m.Indices = []uint32{}

	sides := []struct{ n, u, v math3d.Vec3 }{
		{math3d.V3(1, 0, 0), math3d.V3(0, 0, -1), math3d.V3(0, 1, 0)},
		{math3d.V3(-1, 0, 0), math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)},
		{math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), math3d.V3(0, 0, -1)},
		{math3d.V3(0, -1, 0), math3d.V3(1, 0, 0), math3d.V3(0, 0, 1)},
		{math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
		{math3d.V3(0, 0, -1), math3d.V3(-1, 0, 0), math3d.V3(0, 1, 0)},
	}
	for _, s := range sides {
		base := uint32(len(m.Vertices))
		center := s.n.Scale(0.5)
		for _, c := range [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
			pos := center.Add(s.u.Scale(c[0] - 0.5)).Add(s.v.Scale(c[1] - 0.5))
			m.Vertices = append(m.Vertices, vertex(pos, s.n, c[0], c[1]))
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}

	m.AddRange(Triangles, 0, len(m.Indices))
	m.build()
	return m
}

// Plane is a 2x2 quad in the XZ plane facing +Y, drawn as indexed
// triangles.
func Plane() *Mesh {
	m := NewMesh("plane")
	up := math3d.Up()
	m.Vertices = []MeshVertex{
		vertex(math3d.V3(-1, 0, 1), up, 0, 0),
		vertex(math3d.V3(1, 0, 1), up, 1, 0),
		vertex(math3d.V3(1, 0, -1), up, 1, 1),
		vertex(math3d.V3(-1, 0, -1), up, 0, 1),
	}
	m.Indices = []uint32{0, 1, 2, 0, 2, 3}
	m.AddRange(Triangles, 0, len(m.Indices))
	m.build()
	return m
}

// Sphere is a UV sphere of radius 1 drawn as indexed triangles.
func Sphere() *Mesh {
	m := NewMesh("sphere")

	for i := 0; i <= SphereStacks; i++ {
		phi := math.Pi * float64(i) / SphereStacks
		for j := 0; j <= SphereSlices; j++ {
			theta := 2 * math.Pi * float64(j) / SphereSlices
			n := math3d.V3(math.Sin(phi)*math.Cos(theta), math.Cos(phi), -math.Sin(phi)*math.Sin(theta))
			m.Vertices = append(m.Vertices, vertex(n, n, float64(j)/SphereSlices, 1-float64(i)/SphereStacks))
		}
	}

	m.Indices = []uint32{}
	row := uint32(SphereSlices + 1)
	for i := range uint32(SphereStacks) {
		for j := range uint32(SphereSlices) {
			a := i*row + j
			b := a + row
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}

	m.AddRange(Triangles, 0, len(m.Indices))
	m.build()
	return m
}

// ring appends RoundSegments+1 points of the unit circle at height y; the
// last point repeats the first so texture seams close.
func ring(m *Mesh, y float64, normal func(c, s float64) math3d.Vec3, uv func(j int, c, s float64) (float64, float64)) {
	for j := 0; j <= RoundSegments; j++ {
		theta := 2 * math.Pi * float64(j) / RoundSegments
		c, s := math.Cos(theta), math.Sin(theta)
		u, v := uv(j, c, s)
		m.Vertices = append(m.Vertices, vertex(math3d.V3(c, y, s), normal(c, s), u, v))
	}
}

func capUV(_ int, c, s float64) (float64, float64) {
	return 0.5 + 0.5*c, 0.5 + 0.5*s
}

// Cylinder has radius 1 and spans y in [0, 1]. It is drawn as a bottom fan,
// a top fan and a side strip.
func Cylinder() *Mesh {
	m := NewMesh("cylinder")
	down, up := math3d.V3(0, -1, 0), math3d.Up()
	fan := RoundSegments + 2

	m.Vertices = append(m.Vertices, vertex(math3d.V3(0, 0, 0), down, 0.5, 0.5))
	ring(m, 0, func(_, _ float64) math3d.Vec3 { return down }, capUV)
	m.AddRange(TriangleFan, 0, fan)

	m.Vertices = append(m.Vertices, vertex(math3d.V3(0, 1, 0), up, 0.5, 0.5))
	ring(m, 1, func(_, _ float64) math3d.Vec3 { return up }, capUV)
	m.AddRange(TriangleFan, fan, fan)

	first := len(m.Vertices)
	for j := 0; j <= RoundSegments; j++ {
		theta := 2 * math.Pi * float64(j) / RoundSegments
		c, s := math.Cos(theta), math.Sin(theta)
		n := math3d.V3(c, 0, s)
		u := float64(j) / RoundSegments
		m.Vertices = append(m.Vertices,
			vertex(math3d.V3(c, 0, s), n, u, 0),
			vertex(math3d.V3(c, 1, s), n, u, 1),
		)
	}
	m.AddRange(TriangleStrip, first, len(m.Vertices)-first)

	m.build()
	return m
}

// Cone has a unit-radius base at y=0 and its apex at (0, 1, 0). It is drawn
// as a base fan and a side strip.
func Cone() *Mesh {
	m := NewMesh("cone")
	down := math3d.V3(0, -1, 0)

	m.Vertices = append(m.Vertices, vertex(math3d.V3(0, 0, 0), down, 0.5, 0.5))
	ring(m, 0, func(_, _ float64) math3d.Vec3 { return down }, capUV)
	m.AddRange(TriangleFan, 0, RoundSegments+2)

	first := len(m.Vertices)
	apex := math3d.Up()
	for j := 0; j <= RoundSegments; j++ {
		theta := 2 * math.Pi * float64(j) / RoundSegments
		c, s := math.Cos(theta), math.Sin(theta)
		// Slope normal of a cone with equal radius and height.
		n := math3d.V3(c, 1, s).Normalize()
		u := float64(j) / RoundSegments
		m.Vertices = append(m.Vertices,
			vertex(math3d.V3(c, 0, s), n, u, 0),
			vertex(apex, n, u, 1),
		)
	}
	m.AddRange(TriangleStrip, first, len(m.Vertices)-first)

	m.build()
	return m
}

// Torus lies in the XY plane around the origin, drawn as a plain triangle
// list.
func Torus() *Mesh {
	m := NewMesh("torus")

	at := func(i, j int) MeshVertex {
		u := 2 * math.Pi * float64(i) / TorusMainSteps
		v := 2 * math.Pi * float64(j) / TorusTubeSteps
		radial := math3d.V3(math.Cos(u), math.Sin(u), 0)
		n := radial.Scale(math.Cos(v)).Add(math3d.V3(0, 0, math.Sin(v)))
		pos := radial.Scale(TorusMainRadius).Add(n.Scale(TorusTubeRadius))
		return vertex(pos, n, float64(i)/TorusMainSteps, float64(j)/TorusTubeSteps)
	}

	for i := range TorusMainSteps {
		for j := range TorusTubeSteps {
			a, b := at(i, j), at(i+1, j)
			c, d := at(i+1, j+1), at(i, j+1)
			m.Vertices = append(m.Vertices, a, b, c, a, c, d)
		}
	}

	m.AddRange(Triangles, 0, len(m.Vertices))
	m.build()
	return m
}

// Pyramid4 is a square pyramid of unit base and height centered on the
// origin. The base and each side are separate triangle strips so every face
// keeps a flat normal.
func Pyramid4() *Mesh {
	m := NewMesh("pyramid4")
	apex := math3d.V3(0, 0.5, 0)
	corners := [4]math3d.Vec3{
		math3d.V3(-0.5, -0.5, -0.5),
		math3d.V3(0.5, -0.5, -0.5),
		math3d.V3(0.5, -0.5, 0.5),
		math3d.V3(-0.5, -0.5, 0.5),
	}

	down := math3d.V3(0, -1, 0)
	m.Vertices = append(m.Vertices,
		vertex(corners[0], down, 0, 0),
		vertex(corners[1], down, 1, 0),
		vertex(corners[3], down, 0, 1),
		vertex(corners[2], down, 1, 1),
	)
	m.AddRange(TriangleStrip, 0, 4)

	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		n := b.Sub(a).Cross(apex.Sub(a)).Normalize()
		if n.Dot(a.Add(b).Add(apex)) < 0 {
			n = n.Negate()
		}
		first := len(m.Vertices)
		m.Vertices = append(m.Vertices,
			vertex(a, n, 0, 0),
			vertex(b, n, 1, 0),
			vertex(apex, n, 0.5, 1),
		)
		m.AddRange(TriangleStrip, first, 3)
	}

	m.build()
	return m
}
