package models

import (
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/stilllife/pkg/math3d"
)

// LoadGLB reads every triangle primitive of a glTF or GLB file into a single
// indexed mesh. Triangle strips and fans keep their mode as draw ranges.
// Missing normals are computed from the faces.
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	mesh.Indices = []uint32{}
	hasNormals := true

	for _, m := range doc.Meshes {
		for i, prim := range m.Primitives {
			ok, err := appendPrimitive(doc, prim, mesh)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", m.Name, i, err)
			}
			hasNormals = hasNormals && ok
		}
	}
	if len(mesh.Ranges) == 0 {
		return nil, fmt.Errorf("gltf %s: no triangle primitives", path)
	}

	if err := mesh.Finish(); err != nil {
		return nil, err
	}
	if !hasNormals {
		mesh.CalculateSmoothNormals()
	}
	return mesh, nil
}

// appendPrimitive adds prim to mesh and reports whether it carried normals.
func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, mesh *Mesh) (bool, error) {
	var mode Primitive
	switch prim.Mode {
	case gltf.PrimitiveTriangles:
		mode = Triangles
	case gltf.PrimitiveTriangleStrip:
		mode = TriangleStrip
	case gltf.PrimitiveTriangleFan:
		mode = TriangleFan
	default:
		// Points and lines have no surface to shade.
		return true, nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return true, nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return false, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return false, fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return false, fmt.Errorf("read uvs: %w", err)
		}
	}

	base := uint32(len(mesh.Vertices))
	for i, p := range positions {
		v := MeshVertex{Position: vec3(p)}
		if i < len(normals) {
			v.Normal = vec3(normals[i])
		}
		if i < len(uvs) {
			// glTF puts V=0 at the top of the image; textures here are
			// flipped so V=0 is the bottom row.
			v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	first := len(mesh.Indices)
	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return false, fmt.Errorf("read indices: %w", err)
		}
		for _, idx := range indices {
			mesh.Indices = append(mesh.Indices, base+idx)
		}
	} else {
		for i := range uint32(len(positions)) {
			mesh.Indices = append(mesh.Indices, base+i)
		}
	}
	mesh.AddRange(mode, first, len(mesh.Indices)-first)

	return len(normals) == len(positions), nil
}

func vec3(v [3]float32) math3d.Vec3 {
	return math3d.V3(float64(v[0]), float64(v[1]), float64(v[2]))
}
