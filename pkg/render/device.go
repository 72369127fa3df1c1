package render

import (
	"errors"
	"fmt"

	"github.com/taigrr/stilllife/pkg/math3d"
	"github.com/taigrr/stilllife/pkg/models"
	"github.com/taigrr/stilllife/pkg/scene"
	"github.com/taigrr/stilllife/pkg/shading"
)

var (
	ErrUnknownMesh    = errors.New("mesh not uploaded")
	ErrUnknownTexture = errors.New("texture not uploaded")
)

// CullingStats counts frustum culling results for the last frame.
type CullingStats struct {
	MeshesTested int
	MeshesCulled int
	MeshesDrawn  int
	Triangles    int
}

// Device executes scene frames on the CPU. It owns the framebuffer and the
// uploaded meshes and textures.
type Device struct {
	fb       *Framebuffer
	meshes   map[string]*models.Mesh
	textures map[string]*Texture

	Wireframe    bool
	CullingStats CullingStats

	verts []clipVertex // per-draw vertex stage output, reused
}

// NewDevice creates a device rendering into a width×height framebuffer.
func NewDevice(width, height int) *Device {
	return &Device{
		fb:       NewFramebuffer(width, height),
		meshes:   make(map[string]*models.Mesh),
		textures: make(map[string]*Texture),
	}
}

// Framebuffer returns the render target.
func (d *Device) Framebuffer() *Framebuffer {
	return d.fb
}

// Resize changes the render target size.
func (d *Device) Resize(width, height int) {
	d.fb.Resize(width, height)
}

// UploadTexture stores img under name for sampling.
func (d *Device) UploadTexture(name string, img *Image) error {
	if img.Channels != 3 && img.Channels != 4 {
		return fmt.Errorf("texture %q: %w: %d", name, ErrUnsupportedChannels, img.Channels)
	}
	d.textures[name] = NewTextureFromImage(img)
	return nil
}

// UploadMesh stores mesh under name.
func (d *Device) UploadMesh(name string, mesh *models.Mesh) error {
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("mesh %q: %w", name, err)
	}
	d.meshes[name] = mesh
	return nil
}

// Release drops every uploaded resource.
func (d *Device) Release() {
	clear(d.meshes)
	clear(d.textures)
	d.verts = nil
}

// Execute clears the framebuffer and runs every pass of f in order. A draw
// referring to a mesh or texture that was never uploaded stops the frame.
func (d *Device) Execute(f *scene.Frame) error {
	d.CullingStats = CullingStats{}
	d.fb.Clear(ToRGBA(f.Clear))
	if d.fb.Width == 0 || d.fb.Height == 0 {
		return nil
	}

	for i := range f.Passes {
		if err := d.executePass(&f.Passes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) executePass(p *scene.Pass) error {
	viewProj := p.Projection.Mul(p.View)
	frustum := NewFrustumFromMatrix(viewProj)

	for i := range p.Draws {
		draw := &p.Draws[i]
		mesh, ok := d.meshes[draw.Mesh]
		if !ok {
			return fmt.Errorf("draw %q: %w: %q", draw.Name, ErrUnknownMesh, draw.Mesh)
		}

		var sampler shading.Sampler
		if p.Program == scene.ProgramPhong && draw.HasTexture {
			tex, ok := d.textures[draw.Texture]
			if !ok {
				return fmt.Errorf("draw %q: %w: %q", draw.Name, ErrUnknownTexture, draw.Texture)
			}
			sampler = tex
		}

		d.CullingStats.MeshesTested++
		lo, hi := mesh.GetBounds()
		if !frustum.IntersectAABB(AABB{Min: lo, Max: hi}.Transform(draw.Model)) {
			d.CullingStats.MeshesCulled++
			continue
		}
		d.CullingStats.MeshesDrawn++

		sh := d.fragmentShader(p, draw, sampler)
		d.vertexStage(mesh, viewProj, draw.Model)
		for _, face := range mesh.Faces {
			tri := [3]clipVertex{d.verts[face.V[0]], d.verts[face.V[1]], d.verts[face.V[2]]}
			d.drawTriangle(tri, sh)
		}
	}
	return nil
}

// fragmentShader returns the per-pixel color function of a draw.
func (d *Device) fragmentShader(p *scene.Pass, draw *scene.Draw, tex shading.Sampler) func(shading.Fragment) math3d.Vec4 {
	if p.Program == scene.ProgramMarker {
		c := draw.Color
		return func(shading.Fragment) math3d.Vec4 { return c }
	}
	u := p.Lighting
	u.ObjectColor = draw.Color
	u.HasTexture = draw.HasTexture
	return func(f shading.Fragment) math3d.Vec4 {
		return shading.Phong(f, &u, tex)
	}
}

// vertexStage transforms every mesh vertex once into d.verts.
func (d *Device) vertexStage(mesh *models.Mesh, viewProj, model math3d.Mat4) {
	mvp := viewProj.Mul(model)
	normalMat := math3d.NormalMatrix(model)

	d.verts = d.verts[:0]
	for _, v := range mesh.Vertices {
		d.verts = append(d.verts, clipVertex{
			clip: mvp.MulVec4(math3d.V4FromV3(v.Position, 1)),
			frag: shading.Fragment{
				Position: model.MulVec3(v.Position),
				Normal:   normalMat.MulVec3(v.Normal),
				UV:       v.UV,
			},
		})
	}
}
