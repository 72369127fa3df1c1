// Package scene describes the still life as data and turns it, together with
// the camera, into a per-frame list of render commands.
package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/stilllife/pkg/math3d"
	"github.com/taigrr/stilllife/pkg/models"
	"github.com/taigrr/stilllife/pkg/shading"
)

var (
	ErrUnknownMesh    = errors.New("unknown mesh")
	ErrUnknownTexture = errors.New("unknown texture")
	ErrLightCount     = errors.New("scene needs exactly two lights")
	ErrBadVector      = errors.New("bad vector")
)

//go:embed default.yaml
var defaultYAML string

// Rotation is a rotation of Degrees around Axis.
type Rotation struct {
	Axis    math3d.Vec3
	Degrees float64
}

// Transform composes to Translate * Rotations[0] * ... * Rotations[n-1] *
// Scale.
type Transform struct {
	Scale     math3d.Vec3
	Rotations []Rotation
	Translate math3d.Vec3
}

// Matrix returns the model matrix.
func (t Transform) Matrix() math3d.Mat4 {
	m := math3d.Translate(t.Translate)
	for _, r := range t.Rotations {
		m = m.Mul(math3d.Rotate(r.Axis, math3d.Radians(r.Degrees)))
	}
	return m.Mul(math3d.Scale(t.Scale))
}

// Object is one drawable piece of the still life.
type Object struct {
	Name      string
	Mesh      string
	Texture   string // empty draws Color instead
	Color     math3d.Vec4
	Transform Transform
}

// Marker describes how a light position is visualized.
type Marker struct {
	Mesh      string
	Transform Transform // Translate is replaced by the light position
}

// Scene is the full static description of what gets drawn.
type Scene struct {
	ClearColor math3d.Vec4
	Textures   map[string]string // texture name to file name
	Meshes     map[string]string // mesh name to glTF file replacing a primitive
	Lighting   shading.Uniforms
	Marker     Marker
	Objects    []Object
}

// Default returns the built-in still life.
func Default() *Scene {
	sc, err := Load(strings.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in scene: %v", err))
	}
	return sc
}

// LoadFile reads a scene table from path.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	sc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return sc, nil
}

// Load parses and validates a YAML scene table.
func Load(r io.Reader) (*Scene, error) {
	var doc sceneDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	sc, err := doc.scene()
	if err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate checks that every object refers to a known mesh and texture and
// that exactly two lights are defined.
func (sc *Scene) Validate() error {
	known := func(mesh string) bool {
		_, override := sc.Meshes[mesh]
		return override || slices.Contains(models.Kinds(), mesh)
	}

	for _, o := range sc.Objects {
		if !known(o.Mesh) {
			return fmt.Errorf("object %q: %w %q", o.Name, ErrUnknownMesh, o.Mesh)
		}
		if _, ok := sc.Textures[o.Texture]; o.Texture != "" && !ok {
			return fmt.Errorf("object %q: %w %q", o.Name, ErrUnknownTexture, o.Texture)
		}
	}
	if !known(sc.Marker.Mesh) {
		return fmt.Errorf("marker: %w %q", ErrUnknownMesh, sc.Marker.Mesh)
	}
	return nil
}

// MeshNames returns every mesh the scene draws, sorted.
func (sc *Scene) MeshNames() []string {
	set := map[string]struct{}{sc.Marker.Mesh: {}}
	for _, o := range sc.Objects {
		set[o.Mesh] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// TextureNames returns every texture name, sorted.
func (sc *Scene) TextureNames() []string {
	return slices.Sorted(maps.Keys(sc.Textures))
}

type rotationDoc struct {
	Axis    []float64 `yaml:"axis"`
	Degrees float64   `yaml:"degrees"`
}

type transformDoc struct {
	Scale     []float64     `yaml:"scale"`
	Rotations []rotationDoc `yaml:"rotations"`
	Translate []float64     `yaml:"translate"`
}

type objectDoc struct {
	Name         string    `yaml:"name"`
	Mesh         string    `yaml:"mesh"`
	Texture      string    `yaml:"texture"`
	Color        []float64 `yaml:"color"`
	transformDoc `yaml:",inline"`
}

type lightDoc struct {
	Color             []float64 `yaml:"color"`
	Position          []float64 `yaml:"position"`
	SpecularIntensity float64   `yaml:"specularIntensity"`
	HighlightSize     float64   `yaml:"highlightSize"`
}

type sceneDoc struct {
	ClearColor []float64         `yaml:"clearColor"`
	Textures   map[string]string `yaml:"textures"`
	Meshes     map[string]string `yaml:"meshes"`
	Lighting   struct {
		AmbientColor    []float64  `yaml:"ambientColor"`
		AmbientStrength float64    `yaml:"ambientStrength"`
		UVScale         []float64  `yaml:"uvScale"`
		Lights          []lightDoc `yaml:"lights"`
	} `yaml:"lighting"`
	Marker struct {
		Mesh         string `yaml:"mesh"`
		transformDoc `yaml:",inline"`
	} `yaml:"marker"`
	Objects []objectDoc `yaml:"objects"`
}

func (d *sceneDoc) scene() (*Scene, error) {
	var p vecParser
	sc := &Scene{
		ClearColor: p.vec4("clearColor", d.ClearColor, math3d.V4(0, 0, 0, 1)),
		Textures:   d.Textures,
		Meshes:     d.Meshes,
	}
	if sc.Textures == nil {
		sc.Textures = map[string]string{}
	}

	if len(d.Lighting.Lights) != 2 {
		return nil, fmt.Errorf("%w, got %d", ErrLightCount, len(d.Lighting.Lights))
	}
	sc.Lighting = shading.Uniforms{
		ObjectColor:     math3d.V4(1, 1, 1, 1),
		AmbientColor:    p.vec3("ambientColor", d.Lighting.AmbientColor, math3d.Vec3{}),
		AmbientStrength: d.Lighting.AmbientStrength,
		UVScale:         p.vec2("uvScale", d.Lighting.UVScale, math3d.V2(1, 1)),
		HasTexture:      true,
	}
	for i, l := range d.Lighting.Lights {
		sc.Lighting.Lights[i] = shading.Light{
			Color:             p.vec3("light color", l.Color, math3d.V3(1, 1, 1)),
			Position:          p.vec3("light position", l.Position, math3d.Vec3{}),
			SpecularIntensity: l.SpecularIntensity,
			HighlightSize:     l.HighlightSize,
		}
	}

	sc.Marker = Marker{Mesh: d.Marker.Mesh, Transform: p.transform("marker", d.Marker.transformDoc)}

	for _, o := range d.Objects {
		sc.Objects = append(sc.Objects, Object{
			Name:      o.Name,
			Mesh:      o.Mesh,
			Texture:   o.Texture,
			Color:     p.vec4(o.Name+" color", o.Color, math3d.V4(1, 1, 1, 1)),
			Transform: p.transform(o.Name, o.transformDoc),
		})
	}

	if p.err != nil {
		return nil, p.err
	}
	return sc, nil
}

// vecParser converts YAML number lists, keeping the first error.
type vecParser struct {
	err error
}

func (p *vecParser) check(name string, v []float64, n int) bool {
	if v == nil {
		return false
	}
	if len(v) != n && p.err == nil {
		p.err = fmt.Errorf("%w: %s has %d components, want %d", ErrBadVector, name, len(v), n)
	}
	return len(v) == n
}

func (p *vecParser) vec2(name string, v []float64, def math3d.Vec2) math3d.Vec2 {
	if !p.check(name, v, 2) {
		return def
	}
	return math3d.V2(v[0], v[1])
}

func (p *vecParser) vec3(name string, v []float64, def math3d.Vec3) math3d.Vec3 {
	if !p.check(name, v, 3) {
		return def
	}
	return math3d.V3(v[0], v[1], v[2])
}

func (p *vecParser) vec4(name string, v []float64, def math3d.Vec4) math3d.Vec4 {
	if !p.check(name, v, 4) {
		return def
	}
	return math3d.V4(v[0], v[1], v[2], v[3])
}

func (p *vecParser) transform(name string, d transformDoc) Transform {
	t := Transform{
		Scale:     p.vec3(name+" scale", d.Scale, math3d.V3(1, 1, 1)),
		Translate: p.vec3(name+" translate", d.Translate, math3d.Vec3{}),
	}
	for _, r := range d.Rotations {
		axis := p.vec3(name+" rotation axis", r.Axis, math3d.Vec3{})
		if axis == (math3d.Vec3{}) && p.err == nil {
			p.err = fmt.Errorf("%w: %s rotation has no axis", ErrBadVector, name)
		}
		t.Rotations = append(t.Rotations, Rotation{Axis: axis, Degrees: r.Degrees})
	}
	return t
}
