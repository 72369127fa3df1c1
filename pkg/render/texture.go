package render

import (
	"math"

	"github.com/taigrr/stilllife/pkg/math3d"
)

// Texture samples an Image with repeat wrapping and bilinear filtering, the
// texture state of the OpenGL backend.
type Texture struct {
	Image *Image
}

// NewTextureFromImage wraps img for sampling.
func NewTextureFromImage(img *Image) *Texture {
	return &Texture{Image: img}
}

// Sample returns the color at uv. v = 0 is the first row of the image,
// which is the bottom of the picture after the load-time flip.
func (t *Texture) Sample(uv math3d.Vec2) math3d.Vec4 {
	img := t.Image
	if img == nil || img.Width == 0 || img.Height == 0 {
		return math3d.V4(1, 1, 1, 1)
	}
	fx := uv.X*float64(img.Width) - 0.5
	fy := uv.Y*float64(img.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := wrapPixel(x0+1, img.Width)
	y1 := wrapPixel(y0+1, img.Height)
	x0 = wrapPixel(x0, img.Width)
	y0 = wrapPixel(y0, img.Height)

	bottom := t.texel(x0, y0).Lerp(t.texel(x1, y0), tx)
	top := t.texel(x0, y1).Lerp(t.texel(x1, y1), tx)
	return bottom.Lerp(top, ty)
}

func (t *Texture) texel(x, y int) math3d.Vec4 {
	r, g, b, a := t.Image.At(x, y)
	return math3d.V4(r, g, b, a)
}

func wrapPixel(x, size int) int {
	x %= size
	if x < 0 {
		x += size
	}
	return x
}
