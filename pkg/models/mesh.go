// Package models provides the mesh library of the still life: procedural
// primitives laid out as GPU draw ranges, plus optional glTF import.
package models

import (
	"fmt"

	"github.com/taigrr/stilllife/pkg/math3d"
)

// Primitive is the assembly mode of a draw range, matching the GL modes.
type Primitive int

const (
	Triangles Primitive = iota
	TriangleFan
	TriangleStrip
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case TriangleFan:
		return "triangle fan"
	case TriangleStrip:
		return "triangle strip"
	default:
		return fmt.Sprintf("primitive(%d)", int(p))
	}
}

// DrawRange is one draw call over a mesh: Count elements starting at First.
// Elements are entries of Indices when the mesh is indexed, vertices
// otherwise.
type DrawRange struct {
	Mode  Primitive
	First int
	Count int
}

// Mesh is an immutable piece of geometry created once at startup.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Indices  []uint32
	Ranges   []DrawRange

	// Faces is the triangle list assembled from Ranges.
	Faces []Face

	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Face is a triangle by vertex index.
type Face struct {
	V [3]int
}

// FloatsPerVertex is the stride of Interleaved in float32s.
const FloatsPerVertex = 8

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// Indexed reports whether the ranges address Indices.
func (m *Mesh) Indexed() bool {
	return m.Indices != nil
}

// AddRange appends a draw range.
func (m *Mesh) AddRange(mode Primitive, first, count int) {
	m.Ranges = append(m.Ranges, DrawRange{Mode: mode, First: first, Count: count})
}

// Finish validates the mesh, assembles Faces from the draw ranges and
// computes the bounds.
func (m *Mesh) Finish() error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.build()
	return nil
}

func (m *Mesh) build() {
	m.Faces = m.Faces[:0]
	for _, r := range m.Ranges {
		m.assemble(r)
	}
	m.CalculateBounds()
}

// Validate checks that every range and index stays inside the mesh.
func (m *Mesh) Validate() error {
	elements := len(m.Vertices)
	if m.Indexed() {
		elements = len(m.Indices)
		for i, idx := range m.Indices {
			if int(idx) >= len(m.Vertices) {
				return fmt.Errorf("mesh %s: index %d refers to vertex %d of %d", m.Name, i, idx, len(m.Vertices))
			}
		}
	}
	for i, r := range m.Ranges {
		if r.First < 0 || r.Count < 0 || r.First+r.Count > elements {
			return fmt.Errorf("mesh %s: range %d [%d,+%d) exceeds %d elements", m.Name, i, r.First, r.Count, elements)
		}
	}
	return nil
}

func (m *Mesh) element(i int) int {
	if m.Indexed() {
		return int(m.Indices[i])
	}
	return i
}

func (m *Mesh) assemble(r DrawRange) {
	at := func(i int) int { return m.element(r.First + i) }

	switch r.Mode {
	case Triangles:
		for i := 0; i+2 < r.Count; i += 3 {
			m.Faces = append(m.Faces, Face{V: [3]int{at(i), at(i + 1), at(i + 2)}})
		}
	case TriangleFan:
		for i := 1; i+1 < r.Count; i++ {
			m.Faces = append(m.Faces, Face{V: [3]int{at(0), at(i), at(i + 1)}})
		}
	case TriangleStrip:
		// Odd triangles swap their first two vertices to keep the winding.
		for i := 0; i+2 < r.Count; i++ {
			if i%2 == 0 {
				m.Faces = append(m.Faces, Face{V: [3]int{at(i), at(i + 1), at(i + 2)}})
			} else {
				m.Faces = append(m.Faces, Face{V: [3]int{at(i + 1), at(i), at(i + 2)}})
			}
		}
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// CalculateSmoothNormals replaces vertex normals with the area-weighted
// average of the adjacent face normals. Faces must be assembled.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Vec3{}
	}

	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		normal := v1.Sub(v0).Cross(v2.Sub(v0))

		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(normal)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// TriangleCount returns the number of assembled triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Interleaved returns the vertex buffer as interleaved position, normal and
// uv float32s, FloatsPerVertex per vertex.
func (m *Mesh) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*FloatsPerVertex)
	for _, v := range m.Vertices {
		out = append(out,
			float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z),
			float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z),
			float32(v.UV.X), float32(v.UV.Y),
		)
	}
	return out
}

// GetBounds returns the axis-aligned bounding box.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}
