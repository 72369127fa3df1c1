package models

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/taigrr/stilllife/pkg/math3d"
)

func TestAssembleModes(t *testing.T) {
	tests := []struct {
		name string
		mode Primitive
		n    int
		want [][3]int
	}{
		{"triangles", Triangles, 6, [][3]int{{0, 1, 2}, {3, 4, 5}}},
		{"triangles ignore remainder", Triangles, 5, [][3]int{{0, 1, 2}}},
		{"fan", TriangleFan, 5, [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}},
		{"strip", TriangleStrip, 5, [][3]int{{0, 1, 2}, {2, 1, 3}, {2, 3, 4}}},
		{"degenerate strip", TriangleStrip, 2, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMesh(tc.name)
			m.Vertices = make([]MeshVertex, tc.n)
			m.AddRange(tc.mode, 0, tc.n)
			if err := m.Finish(); err != nil {
				t.Fatalf("Finish: %v", err)
			}
			var got [][3]int
			for _, f := range m.Faces {
				got = append(got, f.V)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("faces = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAssembleIndexedOffset(t *testing.T) {
	m := NewMesh("indexed")
	m.Indices = []uint32{9, 9, 3, 2, 1}
	m.Vertices = make([]MeshVertex, 10)
	m.AddRange(TriangleFan, 2, 3)
	if err := m.Finish(); err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 1 || m.Faces[0].V != [3]int{3, 2, 1} {
		t.Errorf("faces = %v", m.Faces)
	}
}

func TestValidate(t *testing.T) {
	m := NewMesh("bad")
	m.Vertices = make([]MeshVertex, 3)
	m.AddRange(Triangles, 1, 3)
	if err := m.Finish(); err == nil {
		t.Error("range past the vertex buffer should fail")
	}

	m = NewMesh("bad index")
	m.Vertices = make([]MeshVertex, 3)
	m.Indices = []uint32{0, 1, 3}
	m.AddRange(Triangles, 0, 3)
	if err := m.Validate(); err == nil {
		t.Error("index past the vertex buffer should fail")
	}
}

func TestPrimitivesValid(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			m, err := Generate(kind)
			if err != nil {
				t.Fatal(err)
			}
			if err := m.Validate(); err != nil {
				t.Fatal(err)
			}
			if m.TriangleCount() == 0 {
				t.Fatal("no triangles")
			}
			for i, v := range m.Vertices {
				if math.Abs(v.Normal.Len()-1) > 1e-9 {
					t.Fatalf("vertex %d normal %v is not unit length", i, v.Normal)
				}
			}
			if got := len(m.Interleaved()); got != m.VertexCount()*FloatsPerVertex {
				t.Errorf("interleaved length = %d", got)
			}
		})
	}
}

func TestPrimitiveRanges(t *testing.T) {
	tests := []struct {
		kind    string
		modes   []Primitive
		indexed bool
	}{
		{"box", []Primitive{Triangles}, true},
		{"plane", []Primitive{Triangles}, true},
		{"sphere", []Primitive{Triangles}, true},
		{"torus", []Primitive{Triangles}, false},
		{"cylinder", []Primitive{TriangleFan, TriangleFan, TriangleStrip}, false},
		{"cone", []Primitive{TriangleFan, TriangleStrip}, false},
		{"pyramid4", []Primitive{TriangleStrip, TriangleStrip, TriangleStrip, TriangleStrip, TriangleStrip}, false},
	}

	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			m, _ := Generate(tc.kind)
			var modes []Primitive
			for _, r := range m.Ranges {
				modes = append(modes, r.Mode)
			}
			if !slices.Equal(modes, tc.modes) {
				t.Errorf("modes = %v, want %v", modes, tc.modes)
			}
			if m.Indexed() != tc.indexed {
				t.Errorf("indexed = %v, want %v", m.Indexed(), tc.indexed)
			}
		})
	}
}

func TestPrimitiveBounds(t *testing.T) {
	tests := []struct {
		kind     string
		min, max math3d.Vec3
	}{
		{"box", math3d.V3(-0.5, -0.5, -0.5), math3d.V3(0.5, 0.5, 0.5)},
		{"plane", math3d.V3(-1, 0, -1), math3d.V3(1, 0, 1)},
		{"sphere", math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)},
		{"cylinder", math3d.V3(-1, 0, -1), math3d.V3(1, 1, 1)},
		{"cone", math3d.V3(-1, 0, -1), math3d.V3(1, 1, 1)},
		{"pyramid4", math3d.V3(-0.5, -0.5, -0.5), math3d.V3(0.5, 0.5, 0.5)},
	}

	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			m, _ := Generate(tc.kind)
			lo, hi := m.GetBounds()
			if !lo.ApproxEqual(tc.min, 1e-9) || !hi.ApproxEqual(tc.max, 1e-9) {
				t.Errorf("bounds = %v..%v, want %v..%v", lo, hi, tc.min, tc.max)
			}
		})
	}
}

func TestTorusExtent(t *testing.T) {
	m := Torus()
	lo, hi := m.GetBounds()
	outer := TorusMainRadius + TorusTubeRadius
	if math.Abs(hi.X-outer) > 1e-9 || math.Abs(lo.X+outer) > 1e-9 {
		t.Errorf("x extent = %v..%v, want ±%v", lo.X, hi.X, outer)
	}
	if hi.Z > TorusTubeRadius || lo.Z < -TorusTubeRadius {
		t.Errorf("torus leaves the XY plane: z = %v..%v", lo.Z, hi.Z)
	}
	if m.VertexCount() != TorusMainSteps*TorusTubeSteps*6 {
		t.Errorf("vertex count = %d", m.VertexCount())
	}
}

func TestNormalsPointOutward(t *testing.T) {
	for _, kind := range []string{"box", "sphere", "pyramid4"} {
		m, _ := Generate(kind)
		for _, f := range m.Faces {
			a := m.Vertices[f.V[0]]
			if a.Normal.Dot(a.Position) <= 0 {
				t.Errorf("%s: normal %v at %v points inward", kind, a.Normal, a.Position)
				break
			}
		}
	}
}

func TestGenerateUnknown(t *testing.T) {
	_, err := Generate("teapot")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestSmoothNormals(t *testing.T) {
	m := NewMesh("quad")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(1, 0, -1)},
		{Position: math3d.V3(0, 0, -1)},
	}
	m.AddRange(TriangleFan, 0, 4)
	if err := m.Finish(); err != nil {
		t.Fatal(err)
	}
	m.CalculateSmoothNormals()
	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqual(math3d.Up(), 1e-9) {
			t.Errorf("vertex %d normal = %v, want +Y", i, v.Normal)
		}
	}
}
