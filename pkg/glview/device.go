package glview

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/taigrr/stilllife/pkg/math3d"
	"github.com/taigrr/stilllife/pkg/models"
	"github.com/taigrr/stilllife/pkg/render"
	"github.com/taigrr/stilllife/pkg/scene"
	"github.com/taigrr/stilllife/pkg/shading"
)

const floatSize = 4

// gpuMesh is a mesh resident in GL buffers.
type gpuMesh struct {
	vao, vbo, ebo uint32
	indexed       bool
	ranges        []models.DrawRange
}

// program is a linked shader program with its uniform locations cached.
type program struct {
	id       uint32
	uniforms map[string]int32
}

func (p *program) loc(name string) int32 {
	if l, ok := p.uniforms[name]; ok {
		return l
	}
	// -1 is a valid location: GL ignores uploads to it.
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.uniforms[name] = l
	return l
}

func (p *program) setMat4(name string, m math3d.Mat4) {
	v := toMat4(m)
	gl.UniformMatrix4fv(p.loc(name), 1, false, &v[0])
}

func (p *program) setVec2(name string, v math3d.Vec2) {
	gl.Uniform2f(p.loc(name), float32(v.X), float32(v.Y))
}

func (p *program) setVec3(name string, v math3d.Vec3) {
	u := mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
	gl.Uniform3fv(p.loc(name), 1, &u[0])
}

func (p *program) setVec4(name string, v math3d.Vec4) {
	u := mgl32.Vec4{float32(v.X), float32(v.Y), float32(v.Z), float32(v.W)}
	gl.Uniform4fv(p.loc(name), 1, &u[0])
}

func (p *program) setFloat(name string, f float64) {
	gl.Uniform1f(p.loc(name), float32(f))
}

func (p *program) setBool(name string, b bool) {
	var i int32
	if b {
		i = 1
	}
	gl.Uniform1i(p.loc(name), i)
}

// Device executes scene frames with OpenGL. It requires a current context.
type Device struct {
	phong  *program
	marker *program

	meshes   map[string]*gpuMesh
	textures map[string]uint32

	logger *slog.Logger
}

// NewDevice compiles both shader programs and sets up the fixed GL state.
func NewDevice(logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("OpenGL context", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	d := &Device{
		meshes:   make(map[string]*gpuMesh),
		textures: make(map[string]uint32),
		logger:   logger,
	}
	for _, p := range []struct {
		dst **program
		src shading.Source
	}{
		{&d.phong, shading.PhongSource()},
		{&d.marker, shading.MarkerSource()},
	} {
		id, err := CompileProgram(p.src.Vertex, p.src.Fragment)
		if err != nil {
			d.Release()
			return nil, fmt.Errorf("%s program: %w", p.src.Name, err)
		}
		*p.dst = &program{id: id, uniforms: make(map[string]int32)}
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return d, nil
}

// UploadTexture creates a mipmapped, repeating, linearly filtered texture.
func (d *Device) UploadTexture(name string, img *render.Image) error {
	var internal int32
	var format uint32
	switch img.Channels {
	case 3:
		internal, format = gl.RGB8, gl.RGB
	case 4:
		internal, format = gl.RGBA8, gl.RGBA
	default:
		return fmt.Errorf("texture %q: %w: %d", name, render.ErrUnsupportedChannels, img.Channels)
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) < img.Width*img.Height*img.Channels {
		return fmt.Errorf("texture %q: bad image %dx%d", name, img.Width, img.Height)
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// RGB rows are tightly packed.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(img.Width), int32(img.Height), 0, format, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if old, ok := d.textures[name]; ok {
		gl.DeleteTextures(1, &old)
	}
	d.textures[name] = tex
	return nil
}

// UploadMesh copies the interleaved vertices, and the indices when present,
// into a new vertex array.
func (d *Device) UploadMesh(name string, mesh *models.Mesh) error {
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("mesh %q: %w", name, err)
	}
	if len(mesh.Vertices) == 0 {
		return fmt.Errorf("mesh %q has no vertices", name)
	}

	m := &gpuMesh{indexed: mesh.Indexed(), ranges: mesh.Ranges}
	verts := mesh.Interleaved()

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*floatSize, gl.Ptr(verts), gl.STATIC_DRAW)

	if m.indexed && len(mesh.Indices) > 0 {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	}

	stride := int32(models.FloatsPerVertex * floatSize)
	gl.VertexAttribPointerWithOffset(shading.AttribPosition, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(shading.AttribPosition)
	gl.VertexAttribPointerWithOffset(shading.AttribNormal, 3, gl.FLOAT, false, stride, 3*floatSize)
	gl.EnableVertexAttribArray(shading.AttribNormal)
	gl.VertexAttribPointerWithOffset(shading.AttribUV, 2, gl.FLOAT, false, stride, 6*floatSize)
	gl.EnableVertexAttribArray(shading.AttribUV)

	gl.BindVertexArray(0)

	if old, ok := d.meshes[name]; ok {
		deleteMesh(old)
	}
	d.meshes[name] = m
	return nil
}

// Execute clears the default framebuffer and draws every pass.
func (d *Device) Execute(f *scene.Frame) error {
	gl.ClearColor(float32(f.Clear.X), float32(f.Clear.Y), float32(f.Clear.Z), float32(f.Clear.W))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	for i := range f.Passes {
		if err := d.executePass(&f.Passes[i]); err != nil {
			return err
		}
	}
	gl.BindVertexArray(0)
	return nil
}

func (d *Device) executePass(pass *scene.Pass) error {
	p := d.phong
	if pass.Program == scene.ProgramMarker {
		p = d.marker
	}
	gl.UseProgram(p.id)
	p.setMat4(shading.UniformView, pass.View)
	p.setMat4(shading.UniformProjection, pass.Projection)

	if pass.Program == scene.ProgramPhong {
		setLighting(p, &pass.Lighting)
	}

	for _, draw := range pass.Draws {
		mesh, ok := d.meshes[draw.Mesh]
		if !ok {
			return fmt.Errorf("draw %q: %w: %q", draw.Name, render.ErrUnknownMesh, draw.Mesh)
		}

		if pass.Program == scene.ProgramPhong {
			p.setVec4(shading.UniformObjectColor, draw.Color)
			p.setBool(shading.UniformHasTexture, draw.HasTexture)
			if draw.HasTexture {
				tex, ok := d.textures[draw.Texture]
				if !ok {
					return fmt.Errorf("draw %q: %w: %q", draw.Name, render.ErrUnknownTexture, draw.Texture)
				}
				gl.ActiveTexture(gl.TEXTURE0)
				gl.BindTexture(gl.TEXTURE_2D, tex)
			}
		}
		p.setMat4(shading.UniformModel, draw.Model)

		gl.BindVertexArray(mesh.vao)
		for _, r := range mesh.ranges {
			if mesh.indexed {
				gl.DrawElements(glMode(r.Mode), int32(r.Count), gl.UNSIGNED_INT, gl.PtrOffset(r.First*4))
			} else {
				gl.DrawArrays(glMode(r.Mode), int32(r.First), int32(r.Count))
			}
		}
	}
	return nil
}

func setLighting(p *program, u *shading.Uniforms) {
	p.setVec3(shading.UniformAmbientColor, u.AmbientColor)
	p.setFloat(shading.UniformAmbientStrength, u.AmbientStrength)

	l1, l2 := u.Lights[0], u.Lights[1]
	p.setVec3(shading.UniformLight1Color, l1.Color)
	p.setVec3(shading.UniformLight1Position, l1.Position)
	p.setFloat(shading.UniformSpecularIntensity1, l1.SpecularIntensity)
	p.setFloat(shading.UniformHighlightSize1, l1.HighlightSize)
	p.setVec3(shading.UniformLight2Color, l2.Color)
	p.setVec3(shading.UniformLight2Position, l2.Position)
	p.setFloat(shading.UniformSpecularIntensity2, l2.SpecularIntensity)
	p.setFloat(shading.UniformHighlightSize2, l2.HighlightSize)

	p.setVec3(shading.UniformViewPosition, u.ViewPosition)
	p.setVec2(shading.UniformUVScale, u.UVScale)
	gl.Uniform1i(p.loc(shading.UniformTexture), 0)
}

// Release deletes every GL object the device created.
func (d *Device) Release() {
	for name, tex := range d.textures {
		gl.DeleteTextures(1, &tex)
		delete(d.textures, name)
	}
	for name, m := range d.meshes {
		deleteMesh(m)
		delete(d.meshes, name)
	}
	for _, p := range []*program{d.phong, d.marker} {
		if p != nil {
			gl.DeleteProgram(p.id)
		}
	}
	d.phong, d.marker = nil, nil
}

func deleteMesh(m *gpuMesh) {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
}

func glMode(p models.Primitive) uint32 {
	switch p {
	case models.TriangleFan:
		return gl.TRIANGLE_FAN
	case models.TriangleStrip:
		return gl.TRIANGLE_STRIP
	}
	return gl.TRIANGLES
}

// toMat4 narrows a column-major matrix for uniform upload.
func toMat4(m math3d.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
