package render

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
)

// ErrUnsupportedChannels is returned for images that are neither RGB nor
// RGBA.
var ErrUnsupportedChannels = errors.New("unsupported number of channels")

// PixelFormat is the upload format of an image.
type PixelFormat int

const (
	FormatRGB PixelFormat = iota
	FormatRGBA
)

func (f PixelFormat) String() string {
	if f == FormatRGBA {
		return "RGBA"
	}
	return "RGB"
}

// Image is tightly packed 8-bit pixel data. Row 0 is the bottom of the
// picture, the layout expected by texture uploads.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// Format reports the pixel format matching Channels.
func (img *Image) Format() PixelFormat {
	if img.Channels == 4 {
		return FormatRGBA
	}
	return FormatRGB
}

// At returns the channels of the pixel at (x, y) as a [0,1] color with row
// 0 at the bottom. RGB images report alpha 1.
func (img *Image) At(x, y int) (r, g, b, a float64) {
	i := (y*img.Width + x) * img.Channels
	p := img.Pix[i : i+img.Channels]
	r, g, b, a = float64(p[0])/255, float64(p[1])/255, float64(p[2])/255, 1
	if img.Channels == 4 {
		a = float64(p[3]) / 255
	}
	return r, g, b, a
}

// LoadImage reads a PNG or JPEG file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, err := DecodeImage(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes a PNG or JPEG stream and flips it vertically. The
// channel count is the one stored in the file; only 3 and 4 are accepted.
func DecodeImage(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	var (
		decode   func(io.Reader) (image.Image, error)
		channels int
	)
	switch {
	case bytes.HasPrefix(data, pngMagic):
		decode = png.Decode
		channels, err = pngChannels(data)
		if err != nil {
			return nil, err
		}
	case bytes.HasPrefix(data, jpegMagic):
		decode = jpeg.Decode
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		channels = jpegChannels(cfg.ColorModel)
	default:
		return nil, fmt.Errorf("decode image: %w", image.ErrFormat)
	}

	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(src, channels), nil
}

// FromImage packs src into channels (3 or 4) per pixel with the rows
// flipped.
func FromImage(src image.Image, channels int) *Image {
	b := src.Bounds()
	img := &Image{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: channels,
		Pix:      make([]byte, b.Dx()*b.Dy()*channels),
	}
	i := 0
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.R, c.G, c.B
			if channels == 4 {
				img.Pix[i+3] = c.A
			}
			i += channels
		}
	}
	return img
}

// CheckerImage builds a w×h RGB checkerboard with square cells.
func CheckerImage(w, h, cell int, a, b color.RGBA) *Image {
	cell = max(cell, 1)
	img := &Image{Width: w, Height: h, Channels: 3, Pix: make([]byte, w*h*3)}
	for y := range h {
		for x := range w {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			i := (y*w + x) * 3
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.R, c.G, c.B
		}
	}
	return img
}

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8}
)

// pngChannels reads the stored channel count from the IHDR chunk. Palette
// images count as RGB, or RGBA when a tRNS chunk is present.
func pngChannels(data []byte) (int, error) {
	const ihdrColorType = 8 + 8 + 9 // signature, length+type, width..bit depth
	if len(data) <= ihdrColorType {
		return 0, fmt.Errorf("decode image: %w", io.ErrUnexpectedEOF)
	}
	switch data[ihdrColorType] {
	case 0:
		return 1, nil
	case 2:
		return 3, nil
	case 3:
		if pngHasChunk(data, "tRNS") {
			return 4, nil
		}
		return 3, nil
	case 4:
		return 2, nil
	case 6:
		return 4, nil
	}
	return 0, fmt.Errorf("decode image: png color type %d", data[ihdrColorType])
}

func pngHasChunk(data []byte, name string) bool {
	p := len(pngMagic)
	for p+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[p:]))
		kind := string(data[p+4 : p+8])
		if kind == name {
			return true
		}
		if kind == "IDAT" || kind == "IEND" {
			return false
		}
		p += 12 + n
	}
	return false
}

func jpegChannels(m color.Model) int {
	switch m {
	case color.GrayModel:
		return 1
	case color.CMYKModel:
		return 4
	}
	return 3
}
