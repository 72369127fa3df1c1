package shading

import "embed"

// Uniform names shared by the GLSL programs and the backends that feed them.
const (
	UniformModel              = "model"
	UniformView               = "view"
	UniformProjection         = "projection"
	UniformObjectColor        = "objectColor"
	UniformAmbientColor       = "ambientColor"
	UniformAmbientStrength    = "ambientStrength"
	UniformLight1Color        = "light1Color"
	UniformLight1Position     = "light1Position"
	UniformLight2Color        = "light2Color"
	UniformLight2Position     = "light2Position"
	UniformSpecularIntensity1 = "specularIntensity1"
	UniformHighlightSize1     = "highlightSize1"
	UniformSpecularIntensity2 = "specularIntensity2"
	UniformHighlightSize2     = "highlightSize2"
	UniformViewPosition       = "viewPosition"
	UniformTexture            = "uTexture"
	UniformUVScale            = "uvScale"
	UniformHasTexture         = "ubHasTexture"
)

// Vertex attribute locations.
const (
	AttribPosition = 0
	AttribNormal   = 1
	AttribUV       = 2
)

//go:embed shaders
var shaderFS embed.FS

// Source is a vertex and fragment shader pair.
type Source struct {
	Name     string
	Vertex   string
	Fragment string
}

// PhongSource returns the GLSL program implementing Phong.
func PhongSource() Source {
	return mustSource("phong")
}

// MarkerSource returns the flat white light marker program.
func MarkerSource() Source {
	return mustSource("marker")
}

func mustSource(name string) Source {
	vert, err := shaderFS.ReadFile("shaders/" + name + ".vert")
	if err != nil {
		panic(err)
	}
	frag, err := shaderFS.ReadFile("shaders/" + name + ".frag")
	if err != nil {
		panic(err)
	}
	return Source{Name: name, Vertex: string(vert), Fragment: string(frag)}
}
